// pkg/model/record.go
package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is one movie row keyed by column name.
// Values are nil, int64, float64, bool or string.
type Record map[string]any

// Lookup finds a value by column name, ignoring case.
// An exact match wins over a case-folded one.
func (r Record) Lookup(name string) (any, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// ColumnName returns the key of the record matching name, ignoring case
func (r Record) ColumnName(name string) (string, bool) {
	if _, ok := r[name]; ok {
		return name, true
	}
	for k := range r {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

// Text returns the first non-empty value among names, formatted as a string
func (r Record) Text(names ...string) string {
	for _, name := range names {
		v, ok := r.Lookup(name)
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(FormatValue(v))
		if s != "" {
			return s
		}
	}
	return ""
}

// FormatValue renders a scalar as text. Integral floats, which is how JSON
// numbers decode, are written without a fraction or exponent.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Columns returns the record's keys in sorted order
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Trailer is a row of the trailers table
type Trailer struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	YoutubeID string `json:"youtube_id"`
	Category  string `json:"category"`
	PosterURL string `json:"poster_url"`
}

// Record converts the trailer into a generic row
func (t Trailer) Record() Record {
	return Record{
		"id":         t.ID,
		"title":      t.Title,
		"youtube_id": t.YoutubeID,
		"category":   t.Category,
		"poster_url": t.PosterURL,
	}
}
