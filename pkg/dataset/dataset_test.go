package dataset

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Title,Release_Date,Vote_Average\nDune,2021-09-15,7.8\n\"Heat, the movie\",1995-12-15,8.3\n"

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\xEF\xBB\xBF" + sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Title", "Release_Date", "Vote_Average"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "Heat, the movie", table.Rows[1][0])
	assert.Equal(t, 1, table.ColumnIndex("release_date"))
	assert.Equal(t, -1, table.ColumnIndex("genre"))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)

	table, err := ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "movies.csv")
	table := &Table{
		Columns: []string{"Id", "Title"},
		Rows:    [][]string{{"1", "Dune"}, {"2", "Heat, the movie"}},
	}

	require.NoError(t, table.WriteFile(path))

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, table, read)
}

func TestLoaderLoad(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movies.csv":
			w.Write([]byte(sampleCSV))
		case "/movies.csv.gz":
			w.Write(gz.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(server.Client(), nil)
	ctx := context.Background()

	t.Run("Plain", func(t *testing.T) {
		table, err := loader.Load(ctx, server.URL+"/movies.csv")
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
	})

	t.Run("Gzip", func(t *testing.T) {
		table, err := loader.Load(ctx, server.URL+"/movies.csv.gz?download=true")
		require.NoError(t, err)
		assert.Equal(t, "Dune", table.Rows[0][0])
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, server.URL+"/missing.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("LocalFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "movies.csv")
		require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

		table, err := loader.Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 3, len(table.Columns))
	})
}
