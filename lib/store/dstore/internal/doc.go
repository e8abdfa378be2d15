// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the format of the entries written to the
// raft log and of the lookups executed on the state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
//   - Command: a write batch. Commands are serialized, proposed to the RAFT shard
//     and applied by the state machine as a whole.
//   - Query: a read (Get, GetMulti). Queries are executed locally on the state
//     machine and therefore do not require serialization.
//
// Command Format:
//
//	- 4 bytes: number of operations (uint32, big endian)
//	- per operation:
//	  - 1 byte: operation type (Put, Delete)
//	  - 4 bytes: key length (uint32, big endian)
//	  - N bytes: key data
//	  - 4 bytes: value length (uint32, big endian)
//	  - M bytes: value data (empty for Delete)
//
// The types in this package are not thread-safe.
package internal
