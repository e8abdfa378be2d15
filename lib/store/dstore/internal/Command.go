package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/kvbench/lib/store"
)

// Command represents a write batch to be executed by the state machine (a single entry in the raft log).
// All operations of a command are applied atomically.
type Command struct {
	Ops []store.Op
}

const (
	headerSize = 4         // Number of operations
	opOverhead = 1 + 4 + 4 // Type + KeyLen + ValueLen
)

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	size := headerSize
	for _, op := range command.Ops {
		size += opOverhead + len(op.Key) + len(op.Value)
	}
	return size
}

// Serialize serializes a command into a byte array with the format:
// 4 bytes for the number of operations (big endian),
// per operation:
// 1 byte for operation type,
// 4 bytes for key length (big endian),
// N bytes for key data,
// 4 bytes for value length (big endian),
// M bytes for value data
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	binary.BigEndian.PutUint32(result[0:4], uint32(len(command.Ops)))
	pos := headerSize

	for _, op := range command.Ops {
		result[pos] = byte(op.Type)
		pos++

		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(op.Key)))
		pos += 4
		pos += copy(result[pos:], op.Key)

		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(op.Value)))
		pos += 4
		pos += copy(result[pos:], op.Value)
	}

	return result
}

// Deserialize extracts all operations from a byte array.
// Keys and values are copied, data can be reused by the caller.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	count := binary.BigEndian.Uint32(data[0:4])
	pos := headerSize

	// every operation needs at least opOverhead bytes
	if uint64(count)*opOverhead > uint64(len(data)-pos) {
		return fmt.Errorf("data too short for %d operations", count)
	}

	ops := make([]store.Op, count)
	for i := range ops {
		if len(data)-pos < opOverhead {
			return fmt.Errorf("data too short for operation %d", i)
		}
		ops[i].Type = store.OpType(data[pos])
		pos++

		key, n, err := readChunk(data[pos:])
		if err != nil {
			return fmt.Errorf("failed to read key of operation %d: %w", i, err)
		}
		ops[i].Key = key
		pos += n

		value, n, err := readChunk(data[pos:])
		if err != nil {
			return fmt.Errorf("failed to read value of operation %d: %w", i, err)
		}
		ops[i].Value = value
		pos += n
	}

	if pos != len(data) {
		return fmt.Errorf("unexpected %d trailing bytes", len(data)-pos)
	}

	command.Ops = ops
	return nil
}

// readChunk reads a length prefixed chunk and returns a copy of it plus the number of bytes consumed
func readChunk(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("data too short for length")
	}
	n := int(binary.BigEndian.Uint32(data[0:4]))
	if len(data)-4 < n {
		return nil, 0, fmt.Errorf("data too short for chunk of length %d", n)
	}
	chunk := make([]byte, n)
	copy(chunk, data[4:4+n])
	return chunk, 4 + n, nil
}
