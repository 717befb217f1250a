package seqio

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup variables
var (
	contig1    = "acagcaggaaggcttactggagaaacgtatcgactataagaatcgggtgatggaacctcactctcccatcagcgcacaacatagttcgacgggtatgacc"
	contig2    = "GAAGGCTTACTGGAGAAACGTATCGACTATAAGAATCGGGTGATGGAACCTCACTCTCCCATCAGCGCACAACATAGTTCGAC"
	fastaFile  = ">contig_1 some description\n" + contig1[:50] + "\n" + contig1[50:] + "\n>contig_2\n" + contig2 + "\n"
	kmerSize   = 7
	sketchSize = 10
)

// test results
var (
	expectedUpperCase = []byte("ACAGCAGGAAGGCTTACTGGAGAAACGTATCGACTATAAGAATCGGGTGATGGAACCTCACTCTCCCATCAGCGCACAACATAGTTCGACGGGTATGACC")
)

func writeFasta(t *testing.T, name string, gz bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	fh, err := os.Create(path)
	require.NoError(t, err)
	defer fh.Close()
	if gz {
		zw := gzip.NewWriter(fh)
		_, err = zw.Write([]byte(fastaFile))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		return path
	}
	_, err = fh.Write([]byte(fastaFile))
	require.NoError(t, err)
	return path
}

func TestLoadGenome(t *testing.T) {
	for _, gz := range []bool{false, true} {
		name := "genome.fna"
		if gz {
			name += ".gz"
		}
		genome, err := LoadGenome(writeFasta(t, name, gz))
		require.NoError(t, err)
		require.Len(t, genome.Contigs, 2)
		assert.Equal(t, "contig_1", string(genome.Contigs[0].ID))
		assert.Equal(t, contig1, string(genome.Contigs[0].Seq))
		assert.Equal(t, contig2, string(genome.Contigs[1].Seq))
		assert.Equal(t, len(contig1)+len(contig2), genome.Length())
	}

	_, err := LoadGenome(filepath.Join(t.TempDir(), "missing.fna"))
	assert.Error(t, err)
}

func TestLoadEmptyGenome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.fna")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	genome, err := LoadGenome(path)
	require.NoError(t, err)
	assert.Empty(t, genome.Contigs)
	assert.Zero(t, genome.Length())

	// an empty sketch is 0% ANI to a real genome
	emptySketch, err := genome.Sketch(kmerSize, sketchSize)
	require.NoError(t, err)
	assert.Empty(t, emptySketch.Hashes)
	full, err := LoadGenome(writeFasta(t, "genome.fna", false))
	require.NoError(t, err)
	fullSketch, err := full.Sketch(kmerSize, sketchSize)
	require.NoError(t, err)
	ani, err := fullSketch.ANI(emptySketch)
	require.NoError(t, err)
	assert.Zero(t, ani)
}

func TestBaseCheck(t *testing.T) {
	seq := &Sequence{Seq: []byte(contig1)}
	seq.BaseCheck()
	assert.Equal(t, expectedUpperCase, seq.Seq)

	seq = &Sequence{Seq: []byte("acgtRYkmn-")}
	seq.BaseCheck()
	assert.Equal(t, "ACGTNNNNNN", string(seq.Seq))
}

func TestFragments(t *testing.T) {
	seq := &Sequence{Seq: []byte("ACGTACGTNNACGNACGTACGTACGTN")}
	fragments := seq.Fragments(4)
	require.Len(t, fragments, 2)
	assert.Equal(t, "ACGTACGT", string(fragments[0]))
	assert.Equal(t, "ACGTACGTACGT", string(fragments[1]))

	assert.Empty(t, seq.Fragments(20))
	assert.Empty(t, (&Sequence{Seq: []byte("NNNN")}).Fragments(1))
}

func TestGenomeSketch(t *testing.T) {
	genome, err := LoadGenome(writeFasta(t, "genome.fna", false))
	require.NoError(t, err)
	sketch, err := genome.Sketch(kmerSize, sketchSize)
	require.NoError(t, err)
	assert.Len(t, sketch.Hashes, sketchSize)
	assert.Equal(t, uint(kmerSize), sketch.KmerSize)

	// lower case input sketches the same as upper case
	upper := &Genome{Contigs: []Sequence{{Seq: append([]byte(nil), expectedUpperCase...)}, {Seq: []byte(contig2)}}}
	upperSketch, err := upper.Sketch(kmerSize, sketchSize)
	require.NoError(t, err)
	ani, err := sketch.ANI(upperSketch)
	require.NoError(t, err)
	assert.Equal(t, 100.0, ani)
}
