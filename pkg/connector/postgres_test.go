package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/movie-ingress/pkg/model"
)

func TestBuildUpsertQuery(t *testing.T) {
	records := []model.Record{
		{"Id": int64(1), "Title": "Dune", "Vote_average": 7.8},
		{"Id": int64(2), "Title": "Heat"},
	}

	query, args, err := buildUpsertQuery("movies", "Id", records)
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO "movies" ("Id", "Title", "Vote_average") VALUES ($1, $2, $3), ($4, $5, $6) `+
			`ON CONFLICT ("Id") DO UPDATE SET "Title" = EXCLUDED."Title", "Vote_average" = EXCLUDED."Vote_average"`,
		query)
	assert.Equal(t, []interface{}{int64(1), "Dune", 7.8, int64(2), "Heat", nil}, args)
}

func TestBuildUpsertQueryKeyOnly(t *testing.T) {
	query, args, err := buildUpsertQuery("trailers", "id", []model.Record{{"id": "5"}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "trailers" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING`, query)
	assert.Equal(t, []interface{}{"5"}, args)
}

func TestBuildUpsertQueryErrors(t *testing.T) {
	_, _, err := buildUpsertQuery("movies", "Id", nil)
	assert.Error(t, err)

	_, _, err = buildUpsertQuery("movies", "Id", []model.Record{{"Title": "Dune"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key column "Id"`)
}

func TestBuildUpsertQueryQuotesIdentifiers(t *testing.T) {
	query, _, err := buildUpsertQuery(`odd"table`, "id", []model.Record{{"id": 1, `we"ird`: "x"}})
	require.NoError(t, err)
	assert.Contains(t, query, `INSERT INTO "odd""table"`)
	assert.Contains(t, query, `"we""ird" = EXCLUDED."we""ird"`)
}

func TestNormalizeRow(t *testing.T) {
	record := normalizeRow(map[string]interface{}{"title": []byte("Dune"), "id": int64(3), "youtube_id": nil})
	assert.Equal(t, model.Record{"title": "Dune", "id": int64(3), "youtube_id": nil}, record)
}
