package bench

import (
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/stretchr/testify/require"
)

func TestBuildDataset(t *testing.T) {
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 100, 10, 20)
	require.Equal(t, 100, data.Len())

	for _, p := range data.Pairs() {
		require.Len(t, p.Key, 10)
		require.Len(t, p.Value, 20)
	}
}

func TestBuildDatasetDeterminism(t *testing.T) {
	a := BuildDataset(NewKeyGenerator(7), 50, 8, 16)
	b := BuildDataset(NewKeyGenerator(7), 50, 8, 16)
	require.Equal(t, a.Pairs(), b.Pairs())

	// generation order is key first, then value
	gen := NewKeyGenerator(7)
	first := a.Pairs()[0]
	require.Equal(t, gen.Bytes(8), first.Key)
	require.Equal(t, gen.Bytes(16), first.Value)
}

func TestDatasetAccessorsReturnCopies(t *testing.T) {
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 3, 4, 4)

	keys := data.Keys()
	keys[0][0]++
	require.NotEqual(t, keys[0], data.Keys()[0])

	pairs := data.Pairs()
	pairs[1].Value[0]++
	require.NotEqual(t, pairs[1].Value, data.Pairs()[1].Value)

	expected := data.Expected()
	expected[2].Value[0]++
	require.NotEqual(t, expected[2].Value, data.Expected()[2].Value)
}

func TestDatasetExpectedAndBatch(t *testing.T) {
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 10, 4, 0)
	pairs := data.Pairs()

	expected := data.Expected()
	require.Len(t, expected, 10)
	for i, e := range expected {
		require.True(t, e.Found)
		require.Equal(t, pairs[i].Value, e.Value)
	}

	ops := data.Batch().Ops()
	require.Len(t, ops, 10)
	for i, op := range ops {
		require.Equal(t, store.OpPut, op.Type)
		require.Equal(t, pairs[i].Key, op.Key)
		require.Equal(t, pairs[i].Value, op.Value)
	}
}

func TestBuildDatasetEmpty(t *testing.T) {
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 0, 10, 10)
	require.Equal(t, 0, data.Len())
	require.Empty(t, data.Keys())
	require.True(t, data.Batch().IsEmpty())
}

func TestDatasetExpectedCollidingKeys(t *testing.T) {
	// 300 one-byte keys cannot all be distinct
	data := BuildDataset(NewKeyGenerator(DefaultSeed), 300, 1, 8)
	pairs := data.Pairs()
	expected := data.Expected()

	last := make(map[string][]byte)
	for _, p := range pairs {
		last[string(p.Key)] = p.Value
	}
	require.Less(t, len(last), len(pairs))

	for i, p := range pairs {
		require.Equal(t, last[string(p.Key)], expected[i].Value)
	}
}
