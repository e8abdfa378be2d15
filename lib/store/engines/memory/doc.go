// Package memory implements an in-memory store.Store.
//
// All entries live in a single Go map guarded by a reader-biased mutex
// (xsync.RBMutex). Reads take the shared lock, so any number of concurrent
// readers proceed without contention; a batch is applied under the exclusive
// lock and therefore becomes visible atomically. Values are copied on the way
// in and on the way out.
//
// The store can be persisted with Save and restored with Load. The raft backend
// (dstore) uses this to snapshot its state machine.
//
// Usage Example:
//
//	database := memory.NewDatabase(nil)
//	s, _ := database.NewTestStore(ctx)
//	defer s.Close()
package memory
