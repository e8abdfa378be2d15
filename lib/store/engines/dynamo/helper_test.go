package dynamo

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func TestItemRoundTrip(t *testing.T) {
	it := item([]byte("key"), []byte("value"))

	k, ok := it[keyAttr].(*types.AttributeValueMemberB)
	require.True(t, ok)
	require.True(t, bytes.Equal(k.Value, []byte("key")))
	require.Equal(t, []byte("value"), value(it))
}

func TestValueOfMissingAttributeIsEmpty(t *testing.T) {
	it := key([]byte("key"))

	v := value(it)
	require.NotNil(t, v)
	require.Empty(t, v)
}

func TestFitsTransaction(t *testing.T) {
	batchOf := func(n, valueSize int) *store.Batch {
		b := store.NewBatch()
		for i := 0; i < n; i++ {
			b.Put([]byte{byte(i >> 8), byte(i)}, make([]byte, valueSize))
		}
		return b
	}

	tests := []struct {
		name     string
		batch    *store.Batch
		expected bool
	}{
		{"small", batchOf(10, 100), true},
		{"item limit", batchOf(maxTransactItems, 100), true},
		{"too many items", batchOf(maxTransactItems+1, 100), false},
		{"too large", batchOf(100, 100000), false},
		{"size limit", batchOf(4, maxTransactBytes/4-4), true},
		{"just over size limit", batchOf(4, maxTransactBytes/4-3), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, fitsTransaction(tt.batch, len(tt.batch.Simplify())))
		})
	}
}

func TestFitsTransactionCountsSimplifiedOps(t *testing.T) {
	b := store.NewBatch()
	for i := 0; i < maxTransactItems+50; i++ {
		b.Put([]byte("same-key"), []byte("value"))
	}
	require.True(t, fitsTransaction(b, len(b.Simplify())))
}
