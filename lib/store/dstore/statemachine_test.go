package dstore

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/stretchr/testify/require"
)

func newStateMachine() *KVStateMachine {
	return CreateStateMachineFactory(nil)(shardID, replicaID).(*KVStateMachine)
}

func entry(index uint64, ops ...store.Op) sm.Entry {
	cmd := internal.Command{Ops: ops}
	return sm.Entry{Index: index, Cmd: cmd.Serialize()}
}

func TestStateMachineUpdateAndLookup(t *testing.T) {
	fsm := newStateMachine()

	entries, err := fsm.Update([]sm.Entry{
		entry(1,
			store.Op{Type: store.OpPut, Key: []byte("a"), Value: []byte("1")},
			store.Op{Type: store.OpPut, Key: []byte("b"), Value: []byte("2")},
		),
		entry(2, store.Op{Type: store.OpDelete, Key: []byte("b")}),
		{Index: 3},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(store.RetCSuccess), entries[0].Result.Value)
	require.Equal(t, uint64(store.RetCSuccess), entries[1].Result.Value)
	require.Equal(t, uint64(store.RetCInvalidOperation), entries[2].Result.Value)

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTGet, Key: []byte("a")})
	require.NoError(t, err)
	require.Equal(t, internal.QueryResult{Ok: true, Value: []byte("1")}, res)

	res, err = fsm.Lookup(internal.Query{Type: internal.QueryTGetMulti, Keys: [][]byte{[]byte("b"), []byte("a")}})
	require.NoError(t, err)
	lookups, ok := res.(internal.MultiQueryResult)
	require.True(t, ok)
	require.False(t, lookups[0].Found)
	require.True(t, lookups[1].Equal(store.Found([]byte("1"))))
}

func TestStateMachineRejectsInvalidInput(t *testing.T) {
	fsm := newStateMachine()

	entries, err := fsm.Update([]sm.Entry{
		{Index: 1, Cmd: []byte{1, 2}},
		entry(2, store.Op{Type: store.OpType(9), Key: []byte("x")}),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(store.RetCInternalError), entries[0].Result.Value)
	require.Equal(t, uint64(store.RetCInvalidOperation), entries[1].Result.Value)

	_, err = fsm.Lookup("not a query")
	require.Error(t, err)

	_, err = fsm.Lookup(internal.Query{Type: internal.QueryType(9)})
	require.Error(t, err)
}

func TestStateMachineSnapshot(t *testing.T) {
	fsm := newStateMachine()
	_, err := fsm.Update([]sm.Entry{
		entry(1, store.Op{Type: store.OpPut, Key: []byte("k"), Value: []byte("v")}),
	})
	require.NoError(t, err)

	ctx, err := fsm.PrepareSnapshot()
	require.NoError(t, err)

	// updates after PrepareSnapshot are not part of the snapshot
	_, err = fsm.Update([]sm.Entry{
		entry(2, store.Op{Type: store.OpPut, Key: []byte("later"), Value: []byte("x")}),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fsm.SaveSnapshot(ctx, &buf, nil, nil))

	restored := newStateMachine()
	require.NoError(t, restored.RecoverFromSnapshot(&buf, nil, nil))

	res, err := restored.Lookup(internal.Query{Type: internal.QueryTGet, Key: []byte("k")})
	require.NoError(t, err)
	require.Equal(t, internal.QueryResult{Ok: true, Value: []byte("v")}, res)

	res, err = restored.Lookup(internal.Query{Type: internal.QueryTGet, Key: []byte("later")})
	require.NoError(t, err)
	require.False(t, res.(internal.QueryResult).Ok)
}
