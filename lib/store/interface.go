package store

import (
	"bytes"
	"context"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Store is the capability interface every backend under test has to satisfy.
//
// A Store value is a shared handle: implementations must be safe for concurrent
// use by many goroutines, so that the same handle can be passed to any number of
// concurrently running operations without copying or locking by the caller.
type Store interface {
	// WriteBatch applies all operations of the batch. Implementations apply the
	// batch atomically where the backend allows it (see the package docs of the engines).
	WriteBatch(ctx context.Context, batch *Batch) (err error)
	// ReadValue returns the value for a key. The boolean return value indicates whether
	// the key was found. A missing key is never an error.
	ReadValue(ctx context.Context, key []byte) (value []byte, found bool, err error)
	// ReadMultiValues reads many keys at once. The result has the same length and order
	// as keys, with a zero Lookup at every position whose key is absent.
	ReadMultiValues(ctx context.Context, keys [][]byte) (values []Lookup, err error)
	// Close releases the store. For ephemeral test stores this also destroys
	// all data the store created (directories, tables, keyspaces, ...).
	Close() (err error)
}

// TestDatabase is a backend kind that can create ephemeral stores for benchmarks and tests.
type TestDatabase interface {
	// Name returns the human-readable name of the backend (e.g. "DynamoDB").
	Name() string
	// NewTestStore creates a new, isolated store. Stores created by the same or by
	// different databases never share data.
	NewTestStore(ctx context.Context) (Store, error)
}

// Factory is a function that creates a new ephemeral store.
type Factory func(ctx context.Context) (Store, error)

type testDatabase struct {
	name    string
	factory Factory
}

// NewTestDatabase creates a TestDatabase from a name and a factory function.
func NewTestDatabase(name string, factory Factory) TestDatabase {
	return &testDatabase{name: name, factory: factory}
}

func (d *testDatabase) Name() string { return d.name }

func (d *testDatabase) NewTestStore(ctx context.Context) (Store, error) {
	return d.factory(ctx)
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Lookup is the result of reading a single key.
// The zero value means the key was not found.
type Lookup struct {
	Value []byte
	Found bool
}

// Found creates a Lookup for a present value.
func Found(value []byte) Lookup {
	if value == nil {
		value = []byte{}
	}
	return Lookup{Value: value, Found: true}
}

// Equal reports whether both lookups have the same presence and the same bytes.
func (l Lookup) Equal(other Lookup) bool {
	if l.Found != other.Found {
		return false
	}
	return !l.Found || bytes.Equal(l.Value, other.Value)
}

func (l Lookup) String() string {
	if !l.Found {
		return "None"
	}
	return fmt.Sprintf("Some(%x)", l.Value)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and optionally the error reported by the backend.
type Error struct {
	Code  RetCode // The return code
	Msg   string  // The error message.
	Cause error   // The underlying error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new StoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapBackendError wraps an error returned by a backend client.
// It returns nil if err is nil.
func WrapBackendError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:  RetCBackendError,
		Msg:   msg,
		Cause: err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the backend.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCBackendError                        // 4: The backend client reported an error.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCBackendError:
		return "BackendError"
	default:
		return "Unknown"
	}
}
