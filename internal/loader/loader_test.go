package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duralab/frpdur/internal/testutil"
)

func TestLoadFileCSV(t *testing.T) {
	csv := "Title,time_field,Fiber_type,retention1\n" +
		"study-a,1000,Glass,0.85\n" +
		"study-b,SMD,Basalt,0.72\n"
	path := filepath.Join(t.TempDir(), "studies.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	l, err := Open(testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer l.Close()

	records, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].Has("Title"))
	title, ok := records[0].Get("Title").Text()
	require.True(t, ok)
	assert.Equal(t, "study-a", title)

	// Values come through as text; numeric coercion happens downstream.
	hours, ok := records[0].Get("time_field").Numeric()
	require.True(t, ok)
	assert.Equal(t, 1000.0, hours)

	// Sentinel tokens survive loading untouched.
	smd, ok := records[1].Get("time_field").Text()
	require.True(t, ok)
	assert.Equal(t, "SMD", smd)
}

func TestQueryFiltersRows(t *testing.T) {
	csv := "Title,retention1\na,0.9\nb,0.5\nc,0.8\n"
	path := filepath.Join(t.TempDir(), "studies.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	l, err := Open(testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer l.Close()

	records, err := l.Query(context.Background(),
		"SELECT * FROM read_csv_auto('"+escapePath(path)+"', header=true) WHERE retention1 >= 0.8")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLoadFileMissing(t *testing.T) {
	l, err := Open(nil)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.LoadFile(context.Background(), "/nonexistent/data.csv")
	assert.Error(t, err)
}
