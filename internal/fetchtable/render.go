package fetchtable

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LastN orders rows by numeric id and keeps the newest n, like the dashboard.
// Non-array values and n <= 0 are returned unchanged.
func LastN(v any, n int) any {
	rows, ok := v.([]any)
	if !ok || n <= 0 {
		return v
	}
	sorted := make([]any, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rowID(sorted[i]) < rowID(sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

// rowID reads the "id" field; the sensor API sends ids as strings or numbers.
// Rows without a usable id sort first.
func rowID(row any) float64 {
	m, ok := row.(map[string]any)
	if !ok {
		return math.Inf(-1)
	}
	switch id := m["id"].(type) {
	case float64:
		return id
	case string:
		if f, err := strconv.ParseFloat(id, 64); err == nil {
			return f
		}
	}
	return math.Inf(-1)
}

// Render writes v to w in the given format.
func Render(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidConfig, format)
	}
}
