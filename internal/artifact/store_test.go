package artifact

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duralab/frpdur/internal/model"
)

func fittedArtifact(t *testing.T, family string, best bool, createdAt time.Time) *Artifact {
	t.Helper()

	X := [][]float64{{1, 2}, {2, 3}, {3, 5}, {4, 4}, {5, 8}, {6, 9}, {7, 7}, {8, 11}}
	y := []float64{5, 8, 13, 12, 21, 24, 21, 30}

	p, err := model.NewPipeline(family, model.Params{"n_estimators": 5, "max_depth": 3}, []string{"a", "b"}, 1)
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	payload, err := model.EncodePredictor(p)
	require.NoError(t, err)

	return &Artifact{
		ID:             uuid.NewString(),
		RunID:          uuid.NewString(),
		Family:         family,
		Target:         "Tensile strength retention",
		Best:           best,
		FeatureColumns: []string{"a", "b"},
		Params:         model.Params{"n_estimators": 5},
		CVScores:       []float64{0.8, 0.85, 0.9},
		Validation:     model.Metrics{R2: 0.88, N: 10},
		Test:           model.Metrics{R2: 0.91, RMSE: 2.5, N: 8},
		Payload:        payload,
		CreatedAt:      createdAt,
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := fittedArtifact(t, model.FamilyLinear, true, time.Now().UTC())
	require.NoError(t, s.Save(ctx, []*Artifact{a}))

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Family, got.Family)
	assert.Equal(t, a.FeatureColumns, got.FeatureColumns)
	assert.Equal(t, a.CVScores, got.CVScores)
	assert.Equal(t, a.Test, got.Test)

	pred, err := got.Predictor()
	require.NoError(t, err)
	v, err := pred.Predict([]float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 13, v, 2)
}

func TestStoreGetMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(context.Background(), "no-such-id")
	assert.ErrorContains(t, err, "not found")
}

func TestStoreLatestBest(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	older := fittedArtifact(t, model.FamilyLinear, true, time.Now().UTC().Add(-time.Hour))
	newer := fittedArtifact(t, model.FamilyRandomForest, true, time.Now().UTC())
	loser := fittedArtifact(t, model.FamilyGradientBoosting, false, time.Now().UTC())
	require.NoError(t, s.Save(ctx, []*Artifact{older, newer, loser}))

	got, err := s.LatestBest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestStoreLatestBestEmpty(t *testing.T) {
	s := openStore(t)
	_, err := s.LatestBest(context.Background())
	assert.ErrorContains(t, err, "no trained artifacts")
}

func TestStoreList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := fittedArtifact(t, model.FamilyLinear, false, time.Now().UTC().Add(-time.Minute))
	b := fittedArtifact(t, model.FamilyRandomForest, true, time.Now().UTC())
	require.NoError(t, s.Save(ctx, []*Artifact{a, b}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, list[0].Best)
	assert.InDelta(t, 0.91, list[0].TestR2, 1e-9)
}

func TestStoreSaveIsTransactional(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a := fittedArtifact(t, model.FamilyLinear, true, time.Now().UTC())
	dup := fittedArtifact(t, model.FamilyRandomForest, false, time.Now().UTC())
	dup.ID = a.ID // primary key collision fails the batch

	err := s.Save(ctx, []*Artifact{a, dup})
	require.Error(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestArtifactFileRoundTrip(t *testing.T) {
	a := fittedArtifact(t, model.FamilyGradientBoosting, true, time.Now().UTC())

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, a.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.FeatureColumns, got.FeatureColumns)

	pred, err := got.Predictor()
	require.NoError(t, err)
	_, err = pred.Predict([]float64{2, 2})
	require.NoError(t, err)
}
