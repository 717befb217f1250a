package pipeline

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-rowe/galah/src/minhash"
)

func TestSketchAll(t *testing.T) {
	genomes := genomeSet(t)
	store, err := NewSketchStore(genomes, 21, 200)
	require.NoError(t, err)
	require.NoError(t, store.SketchAll([]int{0, 1, 2}, 3))

	// a and c share a file content but not a path
	assert.Equal(t, 3, store.Len())

	// sketching again is a no-op
	require.NoError(t, store.SketchAll([]int{2, 1}, 1))
	assert.Equal(t, 3, store.Len())
}

func TestSketchStoreEstimate(t *testing.T) {
	genomes := genomeSet(t)
	store, err := NewSketchStore(genomes, 21, 200)
	require.NoError(t, err)

	// nothing sketched yet, so these are sketched on demand
	self, err := store.Estimate(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, self)

	same, err := store.Estimate(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, same)

	ab, err := store.Estimate(0, 1)
	require.NoError(t, err)
	ba, err := store.Estimate(1, 0)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Less(t, ab, 80.0)
}

func TestSketchStoreErrors(t *testing.T) {
	_, err := NewSketchStore(nil, 0, 100)
	assert.Error(t, err)
	_, err = NewSketchStore(nil, 21, 0)
	assert.Error(t, err)

	// ntHash stops at 31
	_, err = NewSketchStore(nil, minhash.MaxKmerSize+1, 1000)
	assert.Error(t, err)
	_, err = NewSketchStore(nil, minhash.MaxKmerSize, 1000)
	assert.NoError(t, err)

	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.fna")
	good := writeGenome(t, dir, "good.fna", "ACGTACGTACGTACGTACGTACGTACGTACGTAAAACCCGGGTTT")

	store, err := NewSketchStore([]string{good, missing}, 21, 100)
	require.NoError(t, err)
	assert.Error(t, store.SketchAll([]int{0, 1}, 2))
	assert.Error(t, store.SketchAll([]int{5}, 1))
	_, err = store.Estimate(0, 1)
	assert.Error(t, err)
	_, err = store.Estimate(0, -1)
	assert.Error(t, err)
}

func TestSketchAllStopsAfterError(t *testing.T) {
	dir := t.TempDir()
	r := rand.New(rand.NewSource(7))
	genomes := []string{filepath.Join(dir, "missing.fna")}
	for _, name := range []string{"a.fna", "b.fna", "c.fna", "d.fna"} {
		genomes = append(genomes, writeGenome(t, dir, name, randomGenome(r, 2000)))
	}
	store, err := NewSketchStore(genomes, 21, 100)
	require.NoError(t, err)

	// a single minion sees the missing genome first and skips the rest
	assert.Error(t, store.SketchAll([]int{0, 1, 2, 3, 4}, 1))
	assert.Zero(t, store.Len())
}

func TestEmptyGenomeScoresZero(t *testing.T) {
	dir := t.TempDir()
	r := rand.New(rand.NewSource(11))
	good := writeGenome(t, dir, "good.fna", randomGenome(r, 3000))
	empty := filepath.Join(dir, "empty.fna")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	ns := writeGenome(t, dir, "ns.fna", "NNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNNN")

	store, err := NewSketchStore([]string{good, empty, ns}, 21, 100)
	require.NoError(t, err)
	require.NoError(t, store.SketchAll([]int{0, 1, 2}, 2))
	for _, other := range []int{1, 2} {
		ani, err := store.Estimate(0, other)
		require.NoError(t, err)
		assert.Zero(t, ani)
	}
}
