package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/dstore/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("dstore")
)

// storeImpl is the concrete implementation of the store.Store interface.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration

	// node is set if the store owns the node host (see NewTestStore)
	node *localNode
}

// NewDistributedStore creates a new store on top of a running shard of the node host.
// All operations are linearizable. Closing the store does not stop the node host.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.Store {
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      nh.GetNoOPSession(shardID),
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write serializes a Command and sends it via SyncPropose.
// It returns a *store.Error if an error occurs, or nil on success.
func (s *storeImpl) write(ctx context.Context, cmd internal.Command) error {
	data := cmd.Serialize()
	for i := 0; i < retries; i++ {
		proposeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.nh.SyncPropose(proposeCtx, s.cs, data)
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			if err := wait(ctx, s.timeout/10); err != nil {
				return store.NewError(store.RetCInternalError, err.Error())
			}
			continue
		}

		if err != nil {
			return store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return nil
	}
	return store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function that queries the state machine
// and attempts to convert the response into the expected type R.
//
// Reads use SyncRead, so they observe every write that completed before.
// If the read operation fails due to a system busy error, the function retries up to 5 times.
func read[R any](ctx context.Context, s *storeImpl, q internal.Query) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {
		readCtx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.nh.SyncRead(readCtx, s.shardID, q)
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			if err := wait(ctx, s.timeout/10); err != nil {
				return zero, store.NewError(store.RetCInternalError, err.Error())
			}
			continue
		}

		if err != nil {
			var se *store.Error
			if errors.As(err, &se) {
				return zero, se
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

// WriteBatch proposes the whole batch as a single raft log entry
func (s *storeImpl) WriteBatch(ctx context.Context, batch *store.Batch) error {
	if batch.IsEmpty() {
		return nil
	}
	return s.write(ctx, internal.Command{Ops: batch.Ops()})
}

func (s *storeImpl) ReadValue(ctx context.Context, key []byte) ([]byte, bool, error) {
	res, err := read[internal.QueryResult](ctx, s, internal.Query{
		Type: internal.QueryTGet,
		Key:  key,
	})
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Ok, nil
}

func (s *storeImpl) ReadMultiValues(ctx context.Context, keys [][]byte) ([]store.Lookup, error) {
	return read[internal.MultiQueryResult](ctx, s, internal.Query{
		Type: internal.QueryTGetMulti,
		Keys: keys,
	})
}

// Close stops the node host if the store owns it
func (s *storeImpl) Close() error {
	if s.node == nil {
		return nil
	}
	return s.node.close()
}
