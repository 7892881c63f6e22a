package commands

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeProject lays out a temp project: a config file, an artifact store
// path, and a synthetic training CSV with a linear retention signal.
func writeProject(t *testing.T, rows int) (cfgPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()

	cfgPath = filepath.Join(dir, "frpdur.yaml")
	cfg := `store_path: store.db
training:
  families: [linear, random_forest]
  tuning:
    folds: 3
  search_spaces:
    random_forest:
      n_estimators: [10]
      max_depth: [5]
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	var b strings.Builder
	b.WriteString("Title,solution_condition,time_field,temperature,diameter,Fiber_content_weight,Fiber_type,Matrix_type,surface_treatment,type_of_load,Value1_1,retention1\n")
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < rows; i++ {
		hours := rng.Float64() * 2000
		temp := 20 + rng.Float64()*50
		retention := 0.98 - 0.0002*hours - 0.004*(temp-20) + 0.01*rng.NormFloat64()
		fmt.Fprintf(&b, "study-%03d,7.2,%.1f,%.1f,12,70,Glass,Epoxy,Smooth,preloading,1100,%.4f\n",
			i, hours, temp, retention)
	}
	dataPath = filepath.Join(dir, "studies.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(b.String()), 0o644))

	return cfgPath, dataPath
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "frpdur vtest")
}

func TestTrainRequiresDataSource(t *testing.T) {
	_, err := runCommand(t, "train")
	assert.ErrorContains(t, err, "no data source")
}

func TestTrainPredictRoundTrip(t *testing.T) {
	cfgPath, dataPath := writeProject(t, 200)

	out, err := runCommand(t, "train", dataPath, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "best model")
	assert.Contains(t, out, "voting_ensemble")

	out, err = runCommand(t, "artifacts", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "random_forest")

	// One new mild-exposure scenario.
	inputPath := filepath.Join(filepath.Dir(dataPath), "query.csv")
	input := "Title,solution_condition,time_field,temperature,diameter,Fiber_content_weight,Fiber_type,Matrix_type,surface_treatment,type_of_load,Value1_1\n" +
		"new-scenario,7.2,100,25,12,70,Glass,Epoxy,Smooth,preloading,1100\n"
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	out, err = runCommand(t, "predict", inputPath, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "new-scenario")
	assert.Contains(t, out, "Excellent")
}

func TestTrainDryRunSkipsStore(t *testing.T) {
	cfgPath, dataPath := writeProject(t, 200)

	_, err := runCommand(t, "train", dataPath, "--config", cfgPath, "--dry-run")
	require.NoError(t, err)

	storePath := filepath.Join(filepath.Dir(cfgPath), "store.db")
	_, statErr := os.Stat(storePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPredictFallbackFlag(t *testing.T) {
	cfgPath, dataPath := writeProject(t, 200)

	_, err := runCommand(t, "train", dataPath, "--config", cfgPath)
	require.NoError(t, err)

	// Fiber type column missing entirely: strict mode must fail, fallback
	// mode must answer with a flagged result.
	inputPath := filepath.Join(filepath.Dir(dataPath), "partial.csv")
	input := "Title,solution_condition,time_field,temperature,diameter,Fiber_content_weight,Matrix_type,surface_treatment,type_of_load,Value1_1\n" +
		"partial-scenario,7.2,100,25,12,70,Epoxy,Smooth,preloading,1100\n"
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0o644))

	_, err = runCommand(t, "predict", inputPath, "--config", cfgPath)
	require.Error(t, err)

	out, err := runCommand(t, "predict", inputPath, "--config", cfgPath, "--fallback")
	require.NoError(t, err)
	assert.Contains(t, out, "fallback")
}
