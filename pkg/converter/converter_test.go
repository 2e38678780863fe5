package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInferKind(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())

	tests := []struct {
		name  string
		cells []string
		want  Kind
	}{
		{"Integers", []string{"1", "2", "-30"}, Integer},
		{"IntegersWithNulls", []string{"1", "", "NaN", "3"}, Integer},
		{"Floats", []string{"7.5", "8", "1e3"}, Float},
		{"Booleans", []string{"true", "False", "TRUE"}, Boolean},
		{"Mixed", []string{"1", "Dune"}, String},
		{"YearAsTitle", []string{"1917", "Heat"}, String},
		{"AllEmpty", []string{"", ""}, String},
		{"NoCells", nil, String},
		{"InfIsNotFloat", []string{"1.5", "Inf"}, String},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.InferKind(tt.cells))
		})
	}
}

func TestConvertRow(t *testing.T) {
	c := NewTypeConverter(nil)

	header := []string{"Id", "Title", "Vote_average", "Adult", "Overview"}
	rows := [][]string{
		{"1", "Dune", "7.8", "false", "Spice"},
		{"2", "1917", "8", "true", ""},
	}

	metadata := c.InferMetadata("movies", header, rows)
	require.Len(t, metadata.Columns, 5)
	assert.Equal(t, Integer, metadata.Columns[0].Kind)
	assert.Equal(t, String, metadata.Columns[1].Kind)
	assert.Equal(t, Float, metadata.Columns[2].Kind)
	assert.Equal(t, Boolean, metadata.Columns[3].Kind)
	assert.Equal(t, String, metadata.Columns[4].Kind)
	assert.True(t, metadata.Columns[4].Nullable)
	assert.False(t, metadata.Columns[0].Nullable)

	record, err := c.ConvertRow(metadata, rows[1])
	require.NoError(t, err)
	assert.Equal(t, int64(2), record["Id"])
	assert.Equal(t, "1917", record["Title"])
	assert.Equal(t, 8.0, record["Vote_average"])
	assert.Equal(t, true, record["Adult"])
	assert.Nil(t, record["Overview"])

	_, err = c.ConvertRow(metadata, []string{"3"})
	assert.Error(t, err)
}

func TestConvertValue(t *testing.T) {
	c := NewTypeConverter(nil)

	v, err := c.ConvertValue("null", Integer)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = c.ConvertValue("abc", Integer)
	assert.Error(t, err)

	_, err = c.ConvertValue("yes", Boolean)
	assert.Error(t, err)

	v, err = c.ConvertValue(" padded ", String)
	require.NoError(t, err)
	assert.Equal(t, " padded ", v)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		value     string
		want      string
		wantClock bool
		wantErr   bool
	}{
		{"2021-12-15", "2021-12-15", false, false},
		{"2021-12-15 18:30:00", "2021-12-15 18:30:00", true, false},
		{"2021-12-15T00:00:00Z", "2021-12-15", false, false},
		{"12/15/2021", "2021-12-15", false, false},
		{"December 15, 2021", "2021-12-15", false, false},
		{"not a date", "", false, true},
		{"", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			parsed, hasClock, err := ParseDate(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantClock, hasClock)
			assert.Equal(t, tt.want, FormatDate(parsed, hasClock))
		})
	}
}

func TestDetectTimeFormat(t *testing.T) {
	assert.Equal(t, "2006-01-02", DetectTimeFormat("2024-02-29"))
	assert.Equal(t, "", DetectTimeFormat("2023-02-30"))
}
