// Package dstore implements a store.Store on top of the Dragonboat RAFT consensus
// library. Every operation goes through the consensus layer, so the backend measures
// the cost of linearizable replication on a local machine.
//
// Architecture:
//
//   - Store Client: implements store.Store. Write batches are serialized into a single
//     internal.Command and proposed with SyncPropose; reads are executed with SyncRead.
//
//   - State Machine: a Dragonboat IConcurrentStateMachine (KVStateMachine) which holds
//     the replicated data in a memory.Store. A command is applied under the write lock
//     of that store, so each batch becomes visible atomically.
//
//   - Communication Protocol: defined in the internal package.
//
// Test Stores:
//
// NewDatabase starts one NodeHost per test store, with a single replica shard on a free
// local port and its own temporary data directory. NewTestStore returns once the replica
// has been elected leader. Close stops the NodeHost and removes the directory.
//
// A store on top of an already running NodeHost can be created with NewDistributedStore.
//
// Error Handling and Retries:
//
//   - System Busy: When Dragonboat returns ErrSystemBusy, the operation is retried
//     after a short delay, up to 5 attempts.
//
//   - Timeouts: Every proposal and read is bounded by Options.Timeout (and by the
//     context passed by the caller).
//
// Snapshotting and Recovery:
//
// PrepareSnapshot serializes the memory.Store (see memory.Store.Save) while Dragonboat
// holds back updates, SaveSnapshot writes the captured bytes and RecoverFromSnapshot
// restores them with memory.Store.Load.
//
// Usage Example:
//
//	database := dstore.NewDatabase(nil)
//	s, err := database.NewTestStore(ctx)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
package dstore
