package minhash

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kmerSize        = uint(7)
	sketchSize      = uint(10)
	seqA            = []byte("ACTGCGTGCGTGAAACGTGCACGTGACGTG")
	seqArcomplement = []byte("CACGTCACGTGCACGTTTCACGCACGCAGT")
)

// randomSeq is a helper function for generating a reproducible DNA sequence
func randomSeq(r *rand.Rand, n int) []byte {
	bases := []byte("ACGT")
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = bases[r.Intn(4)]
	}
	return seq
}

// mutate is a helper function that substitutes every nth base
func mutate(seq []byte, every int) []byte {
	next := map[byte]byte{'A': 'C', 'C': 'G', 'G': 'T', 'T': 'A'}
	out := append([]byte(nil), seq...)
	for i := every / 2; i < len(out); i += every {
		out[i] = next[out[i]]
	}
	return out
}

func sketchOf(t testing.TB, seq []byte, k, s uint) *Sketch {
	mh := NewKMVsketch(k, s)
	require.NoError(t, mh.AddSequence(seq))
	return mh.Sketch()
}

func TestKMVadd(t *testing.T) {
	mhKMV := NewKMVsketch(kmerSize, sketchSize)

	// try adding a sequence that is too short for the given k
	if err := mhKMV.AddSequence(seqA[0:1]); err == nil {
		t.Fatal("should fault as sequences must be >= kmerSize")
	}

	// try adding a sequence that passes the length check
	if err := mhKMV.AddSequence(seqA); err != nil {
		t.Fatal(err)
	}
	sketch := mhKMV.Sketch()
	assert.Len(t, sketch.Hashes, int(sketchSize))
	for i := 1; i < len(sketch.Hashes); i++ {
		assert.Less(t, sketch.Hashes[i-1], sketch.Hashes[i], "hashes should be distinct and ascending")
	}
}

func TestKMVduplicateKmers(t *testing.T) {
	// a homopolymer only has one distinct k-mer
	sketch := sketchOf(t, []byte("AAAAAAAAAAAAAAAAAAAA"), kmerSize, sketchSize)
	assert.Len(t, sketch.Hashes, 1)
}

func TestReverseComplementIdentity(t *testing.T) {
	// canonical k-mers mean a sequence and its reverse complement share all k-mers
	js, err := sketchOf(t, seqA, kmerSize, sketchSize).Jaccard(sketchOf(t, seqArcomplement, kmerSize, sketchSize))
	require.NoError(t, err)
	assert.Equal(t, 1.0, js)
}

func TestSelfANI(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	seq := randomSeq(r, 5000)
	a := sketchOf(t, seq, 21, 200)
	b := sketchOf(t, append([]byte(nil), seq...), 21, 200)
	ani, err := a.ANI(b)
	require.NoError(t, err)
	assert.Equal(t, 100.0, ani)
}

func TestANISymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	base := randomSeq(r, 20000)
	seqs := [][]byte{base, mutate(base, 50), mutate(base, 20), randomSeq(r, 20000), randomSeq(r, 3000)}
	sketches := make([]*Sketch, len(seqs))
	for i, seq := range seqs {
		sketches[i] = sketchOf(t, seq, 15, 500)
	}
	for i := range sketches {
		for j := range sketches {
			ab, err := sketches[i].ANI(sketches[j])
			require.NoError(t, err)
			ba, err := sketches[j].ANI(sketches[i])
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "estimate(%d,%d) != estimate(%d,%d)", i, j, j, i)
		}
	}

	// closer sequences should give higher estimates
	near, _ := sketches[0].ANI(sketches[1])
	far, _ := sketches[0].ANI(sketches[2])
	unrelated, _ := sketches[0].ANI(sketches[3])
	assert.Greater(t, near, far)
	assert.Greater(t, far, unrelated)
}

func TestJaccardHandBuilt(t *testing.T) {
	a := &Sketch{KmerSize: 21, SketchSize: 4, Hashes: []uint64{1, 2, 3, 4}}
	b := &Sketch{KmerSize: 21, SketchSize: 4, Hashes: []uint64{2, 4, 5, 6}}

	// union bottom-4 is {1,2,3,4}, of which 2 and 4 are shared
	js, err := a.Jaccard(b)
	require.NoError(t, err)
	assert.Equal(t, 0.5, js)

	js2, err := b.Jaccard(a)
	require.NoError(t, err)
	assert.Equal(t, js, js2)
}

func TestDegenerateSketches(t *testing.T) {
	empty := &Sketch{KmerSize: 21, SketchSize: 100}
	full := &Sketch{KmerSize: 21, SketchSize: 100, Hashes: []uint64{1, 2, 3}}
	for _, pair := range [][2]*Sketch{{empty, empty}, {empty, full}, {full, empty}} {
		ani, err := pair[0].ANI(pair[1])
		require.NoError(t, err)
		assert.Equal(t, 0.0, ani)
	}
}

func TestIncompatibleSketches(t *testing.T) {
	a := &Sketch{KmerSize: 21, SketchSize: 100}
	_, err := a.ANI(&Sketch{KmerSize: 17, SketchSize: 100})
	assert.Error(t, err)
	_, err = a.ANI(&Sketch{KmerSize: 21, SketchSize: 1000})
	assert.Error(t, err)
}

func TestMashANI(t *testing.T) {
	assert.Equal(t, 0.0, MashANI(0, 21))
	assert.Equal(t, 100.0, MashANI(1, 21))

	// j = 1/3 gives 2j/(1+j) = 1/2
	expected := 100.0 * (1.0 - math.Log(2)/21.0)
	assert.InDelta(t, expected, MashANI(1.0/3.0, 21), 1e-9)

	// monotonic in j
	prev := 0.0
	for j := 0.01; j < 1; j += 0.01 {
		ani := MashANI(j, 21)
		assert.GreaterOrEqual(t, ani, prev)
		prev = ani
	}
}

// benchmark KMV
func BenchmarkKMV(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	seq := randomSeq(r, 100000)
	for n := 0; n < b.N; n++ {
		mhKMV := NewKMVsketch(21, 1000)
		if err := mhKMV.AddSequence(seq); err != nil {
			b.Fatal(err)
		}
	}
}
