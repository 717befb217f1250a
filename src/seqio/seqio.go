/*
	the seqio package contains custom types and methods for loading genomes and holding sequence data
*/
package seqio

import (
	"unicode"

	"github.com/biogo/biogo/alphabet"
	bioseqio "github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"

	"github.com/will-rowe/galah/src/minhash"
)

// Sequence is the base type for a contig
type Sequence struct {
	ID  []byte
	Seq []byte
}

// Genome is a set of contigs loaded from a single FASTA file
type Genome struct {
	Path    string
	Contigs []Sequence
}

// LoadGenome reads every record from a (optionally gzipped) FASTA file. An empty file is a
// genome with no contigs, which sketches to nothing and so shares 0% ANI with everything.
func LoadGenome(path string) (*Genome, error) {
	fh, err := xopen.Ropen(path)
	if errors.Is(err, xopen.ErrNoContent) {
		return &Genome{Path: path}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer fh.Close()
	genome := &Genome{Path: path}
	sc := bioseqio.NewScanner(fasta.NewReader(fh, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		contig := Sequence{ID: []byte(s.ID), Seq: make([]byte, len(s.Seq))}
		for i, l := range s.Seq {
			contig.Seq[i] = byte(l)
		}
		genome.Contigs = append(genome.Contigs, contig)
	}
	if err := sc.Error(); err != nil {
		return nil, errors.Wrapf(err, "could not parse FASTA %v", path)
	}
	return genome, nil
}

// Length is the total number of bases across all contigs
func (Genome *Genome) Length() int {
	total := 0
	for _, contig := range Genome.Contigs {
		total += len(contig.Seq)
	}
	return total
}

// Sketch runs a bottom-k MinHash over every contig in the genome
func (Genome *Genome) Sketch(kmerSize, sketchSize int) (*minhash.Sketch, error) {
	mh := minhash.NewKMVsketch(uint(kmerSize), uint(sketchSize))
	for i := range Genome.Contigs {
		Genome.Contigs[i].BaseCheck()
		for _, fragment := range Genome.Contigs[i].Fragments(kmerSize) {
			if err := mh.AddSequence(fragment); err != nil {
				return nil, errors.Wrapf(err, "%v: contig %s", Genome.Path, Genome.Contigs[i].ID)
			}
		}
	}
	return mh.Sketch(), nil
}

// BaseCheck is a method to check for ACTGN bases and also to convert bases to upper case
func (Sequence *Sequence) BaseCheck() {
	for i, j := 0, len(Sequence.Seq); i < j; i++ {
		switch base := unicode.ToUpper(rune(Sequence.Seq[i])); base {
		case 'A', 'C', 'T', 'G', 'N':
			Sequence.Seq[i] = byte(base)
		default:
			Sequence.Seq[i] = byte('N')
		}
	}
}

// Fragments splits a base-checked sequence on N and returns the runs that hold at least one k-mer
func (Sequence *Sequence) Fragments(k int) [][]byte {
	fragments := [][]byte{}
	start := 0
	for i := 0; i <= len(Sequence.Seq); i++ {
		if i < len(Sequence.Seq) && Sequence.Seq[i] != 'N' {
			continue
		}
		if i-start >= k && k > 0 {
			fragments = append(fragments, Sequence.Seq[start:i])
		}
		start = i + 1
	}
	return fragments
}
