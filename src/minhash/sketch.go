package minhash

import (
	"fmt"
	"math"
)

// Sketch is a finished bottom-k sketch. Hashes are distinct and sorted ascending, and there are
// at most SketchSize of them (fewer for genomes with fewer distinct k-mers).
type Sketch struct {
	KmerSize   uint
	SketchSize uint
	Hashes     []uint64
}

// Compatible returns an error if two sketches were not built with the same parameters
func (s *Sketch) Compatible(query *Sketch) error {
	if s.KmerSize != query.KmerSize {
		return fmt.Errorf("sketches use different k-mer sizes: %d vs %d", s.KmerSize, query.KmerSize)
	}
	if s.SketchSize != query.SketchSize {
		return fmt.Errorf("sketches use different sketch sizes: %d vs %d", s.SketchSize, query.SketchSize)
	}
	return nil
}

// Jaccard estimates the Jaccard similarity of the two underlying k-mer sets. The smallest
// SketchSize hashes of the union are walked and the fraction found in both sketches is returned.
func (s *Sketch) Jaccard(query *Sketch) (float64, error) {
	if err := s.Compatible(query); err != nil {
		return 0.0, err
	}
	a, b := s.Hashes, query.Hashes
	limit := int(s.SketchSize)
	i, j, union, shared := 0, 0, 0, 0
	for union < limit && i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			shared++
			i++
			j++
		}
		union++
	}
	for ; union < limit && i < len(a); i++ {
		union++
	}
	for ; union < limit && j < len(b); j++ {
		union++
	}
	if union == 0 {
		return 0.0, nil
	}
	return float64(shared) / float64(union), nil
}

// ANI estimates the average nucleotide identity (%) between the genomes behind two sketches
func (s *Sketch) ANI(query *Sketch) (float64, error) {
	js, err := s.Jaccard(query)
	if err != nil {
		return 0.0, err
	}
	return MashANI(js, s.KmerSize), nil
}

// MashANI converts a k-mer Jaccard similarity into an ANI percentage using the Mash distance,
// D = -1/k * ln(2j / (1+j)). The result is clamped to [0, 100].
func MashANI(jaccard float64, kmerSize uint) float64 {
	if jaccard <= 0 || kmerSize == 0 {
		return 0.0
	}
	if jaccard >= 1 {
		return 100.0
	}
	distance := -1.0 / float64(kmerSize) * math.Log(2*jaccard/(1+jaccard))
	ani := 100.0 * (1.0 - distance)
	if ani < 0 {
		return 0.0
	}
	return ani
}
