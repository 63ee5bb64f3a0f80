// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
)

// Well-known sensor tables.
const (
	TableMoisture = "moisture"
	TableDHT22    = "dht22"
)

// Credentials authenticate the relay against the sensor API. A value is built
// once at startup and never mutated.
type Credentials struct {
	User string
	Pass string
	DB   string
}

// String hides the password so credentials can be logged safely.
func (c Credentials) String() string {
	return "user=" + c.User + " db=" + c.DB + " pass=***"
}

// TableQuery is the outbound payload for one table read.
type TableQuery struct {
	Credentials Credentials
	Table       string
}

// NewTableQuery pairs credentials with a table name.
func NewTableQuery(creds Credentials, table string) TableQuery {
	return TableQuery{Credentials: creds, Table: table}
}

// wireTableQuery fixes the key order the sensor API expects.
type wireTableQuery struct {
	User  string `json:"user"`
	Pass  string `json:"pass"`
	DB    string `json:"db"`
	Table string `json:"table"`
}

// MarshalJSON flattens the query to {"user","pass","db","table"}.
func (q TableQuery) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireTableQuery{
		User:  q.Credentials.User,
		Pass:  q.Credentials.Pass,
		DB:    q.Credentials.DB,
		Table: q.Table,
	})
}

// TableSet is an immutable allow-list of table names.
type TableSet struct {
	names []string
	index map[string]struct{}
}

// NewTableSet builds a set, dropping blanks and duplicates while keeping order.
func NewTableSet(names ...string) TableSet {
	s := TableSet{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = struct{}{}
		s.names = append(s.names, n)
	}
	return s
}

// Contains reports whether table is allowed.
func (s TableSet) Contains(table string) bool {
	_, ok := s.index[table]
	return ok
}

// Names returns the tables in configuration order.
func (s TableSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of tables.
func (s TableSet) Len() int { return len(s.names) }
