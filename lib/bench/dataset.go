package bench

import "github.com/ValentinKolb/kvbench/lib/store"

// Pair is a single generated key value pair
type Pair struct {
	Key   []byte
	Value []byte
}

// Dataset is an ordered list of generated pairs. All accessors return deep copies,
// so every access pattern owns its input.
type Dataset struct {
	pairs []Pair
}

// BuildDataset generates numKeys pairs. For every pair the key is generated
// first, then the value. Keys are random and not checked for collisions.
func BuildDataset(gen *KeyGenerator, numKeys, keySize, valueSize int) *Dataset {
	pairs := make([]Pair, max(numKeys, 0))
	for i := range pairs {
		pairs[i].Key = gen.Bytes(keySize)
		pairs[i].Value = gen.Bytes(valueSize)
	}
	return &Dataset{pairs: pairs}
}

// Len returns the number of pairs
func (d *Dataset) Len() int {
	return len(d.pairs)
}

// Keys returns a copy of all keys in order
func (d *Dataset) Keys() [][]byte {
	keys := make([][]byte, len(d.pairs))
	for i, p := range d.pairs {
		keys[i] = clone(p.Key)
	}
	return keys
}

// Pairs returns a copy of all pairs in order
func (d *Dataset) Pairs() []Pair {
	pairs := make([]Pair, len(d.pairs))
	for i, p := range d.pairs {
		pairs[i] = Pair{Key: clone(p.Key), Value: clone(p.Value)}
	}
	return pairs
}

// Expected returns the result every read pattern has to produce: one found value per key
func (d *Dataset) Expected() []store.Lookup {
	// colliding keys resolve to the value written last
	last := make(map[string][]byte, len(d.pairs))
	for _, p := range d.pairs {
		last[string(p.Key)] = p.Value
	}

	expected := make([]store.Lookup, len(d.pairs))
	for i, p := range d.pairs {
		expected[i] = store.Found(clone(last[string(p.Key)]))
	}
	return expected
}

// Batch returns a batch with a put operation for every pair
func (d *Dataset) Batch() *store.Batch {
	batch := store.NewBatch()
	for _, p := range d.Pairs() {
		batch.Put(p.Key, p.Value)
	}
	return batch
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
