package internal

import "github.com/ValentinKolb/kvbench/lib/store"

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGet      QueryType = iota // Retrieve an entry by key.
	QueryTGetMulti                  // Retrieve many entries, in order.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTGetMulti:
		return "GetMulti"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead
type Query struct {
	Type QueryType // The type of Query to perform.
	Key  []byte    // The key for QueryTGet.
	Keys [][]byte  // The keys for QueryTGetMulti.
}

// QueryResult is the result of a QueryTGet operation.
// QueryTGetMulti returns a []store.Lookup.
type QueryResult struct {
	Ok    bool
	Value []byte
}

// MultiQueryResult is the result of a QueryTGetMulti operation.
type MultiQueryResult = []store.Lookup
