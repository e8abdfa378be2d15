package store

import "fmt"

// OpType is the kind of a single write operation in a batch.
type OpType uint8

const (
	OpPut    OpType = iota // Insert or update an entry.
	OpDelete               // Remove an entry.
)

func (t OpType) String() string {
	switch t {
	case OpPut:
		return "Put"
	case OpDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Op is a single write operation. Value is ignored for OpDelete.
type Op struct {
	Type  OpType
	Key   []byte
	Value []byte
}

// Batch groups write operations that are submitted to a store together.
// The batch keeps references to the given slices, callers must not modify
// them until the batch was written.
type Batch struct {
	ops []Op
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put adds an insert-or-update operation.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, Op{Type: OpPut, Key: key, Value: value})
}

// Delete adds a delete operation.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, Op{Type: OpDelete, Key: key})
}

// Ops returns the operations in insertion order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// IsEmpty reports whether the batch has no operations.
func (b *Batch) IsEmpty() bool {
	return len(b.ops) == 0
}

// SizeBytes returns the sum of all key and value lengths.
func (b *Batch) SizeBytes() int {
	size := 0
	for _, op := range b.ops {
		size += len(op.Key) + len(op.Value)
	}
	return size
}

// Simplify returns the operations with only the last operation per key retained.
// The result is ordered by the position of that last operation. Applying the
// simplified operations has the same effect as applying all operations in order.
//
// Some backends (e.g. DynamoDB) reject requests that touch the same key twice.
func (b *Batch) Simplify() []Op {
	last := make(map[string]int, len(b.ops))
	for i, op := range b.ops {
		last[string(op.Key)] = i
	}
	if len(last) == len(b.ops) {
		return b.ops
	}

	result := make([]Op, 0, len(last))
	for i, op := range b.ops {
		if last[string(op.Key)] == i {
			result = append(result, op)
		}
	}
	return result
}
