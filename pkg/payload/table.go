// Package payload holds request shapes shared by the relay's entrypoints.
package payload

import "strings"

// TableRequest asks for one sensor table.
type TableRequest struct {
	Table string `json:"table"`
}

// Normalized returns the request with surrounding whitespace removed.
func (r TableRequest) Normalized() TableRequest {
	return TableRequest{Table: strings.TrimSpace(r.Table)}
}
