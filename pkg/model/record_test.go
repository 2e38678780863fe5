package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordLookup(t *testing.T) {
	r := Record{"Title": "Dune", "id": int64(7), "name": nil}

	v, ok := r.Lookup("title")
	assert.True(t, ok)
	assert.Equal(t, "Dune", v)

	_, ok = r.Lookup("overview")
	assert.False(t, ok)

	assert.Equal(t, "Dune", r.Text("title", "name"))
	assert.Equal(t, "7", r.Text("name", "id"))
	assert.Equal(t, "", r.Text("missing"))
	assert.Equal(t, []string{"Title", "id", "name"}, r.Columns())

	col, ok := r.ColumnName("ID")
	assert.True(t, ok)
	assert.Equal(t, "id", col)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1184918", FormatValue(float64(1184918)))
	assert.Equal(t, "7.5", FormatValue(7.5))
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "42", FormatValue(int64(42)))
}

func TestTableMetadataGetColumnByName(t *testing.T) {
	tm := &TableMetadata{
		Table: "movies",
		Columns: []Column{
			{Name: "Id", Kind: KindInteger},
			{Name: "Title", Kind: KindString},
		},
	}

	col := tm.GetColumnByName("id")
	if assert.NotNil(t, col) {
		assert.Equal(t, KindInteger, col.Kind)
	}
	assert.Nil(t, tm.GetColumnByName("genre"))
	assert.Equal(t, []string{"Id", "Title"}, tm.ColumnNames())
	assert.Equal(t, "integer", KindInteger.String())
}
