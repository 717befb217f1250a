// Package quality links genomes to their CheckM completeness/contamination estimates, removes
// low quality genomes and ranks the remainder so the best genomes become cluster representatives.
package quality

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/logger"
)

// ErrMissingQuality is returned when a genome can't be matched against the quality table
var ErrMissingQuality = errors.New("failed to link genome FASTA file to a CheckM quality")

// NoMaxContamination disables the contamination filter
var NoMaxContamination = math.Inf(1)

// DefaultFormula is the composite score used when none is requested
const DefaultFormula = "completeness-5contamination"

// Quality is the CheckM estimate for a single genome
type Quality struct {
	Completeness  float64
	Contamination float64
}

// Lookup finds the quality of a genome from its FASTA path
type Lookup interface {
	RetrieveViaFastaPath(path string) (Quality, bool)
}

// Formula combines completeness and contamination into a single ranking score
type Formula func(Quality) float64

// Formulas are the available composite scores, by name
var Formulas = map[string]Formula{
	"completeness-4contamination": func(q Quality) float64 { return q.Completeness - 4*q.Contamination },
	"completeness-5contamination": func(q Quality) float64 { return q.Completeness - 5*q.Contamination },
}

// GetFormula returns the named formula
func GetFormula(name string) (Formula, error) {
	f, ok := Formulas[name]
	if !ok {
		return nil, errors.Errorf("unknown quality formula: %q", name)
	}
	return f, nil
}

// Thresholds are the limits a genome must meet to be kept
type Thresholds struct {
	MinCompleteness  float64
	MaxContamination float64
}

// DefaultThresholds keep everything
func DefaultThresholds() Thresholds {
	return Thresholds{MinCompleteness: 0, MaxContamination: NoMaxContamination}
}

// Passes reports whether a quality record meets the thresholds
func (t Thresholds) Passes(q Quality) bool {
	if q.Completeness < t.MinCompleteness {
		return false
	}
	return math.IsInf(t.MaxContamination, 1) || q.Contamination <= t.MaxContamination
}

// Resolve links every genome to its quality record, failing on the first genome that is missing
func Resolve(genomes []string, table Lookup) ([]Quality, error) {
	qualities := make([]Quality, len(genomes))
	for i, genome := range genomes {
		q, ok := table.RetrieveViaFastaPath(genome)
		if !ok {
			return nil, errors.Wrapf(ErrMissingQuality, "%v (looked up as %q)", genome, BinID(genome))
		}
		qualities[i] = q
	}
	return qualities, nil
}

// Filter returns the indices of genomes that pass the thresholds, in input order. A nil qualities
// slice means no quality table was given and nothing is removed.
func Filter(numGenomes int, qualities []Quality, t Thresholds) []int {
	passed := make([]int, 0, numGenomes)
	for i := 0; i < numGenomes; i++ {
		if qualities != nil && !t.Passes(qualities[i]) {
			continue
		}
		passed = append(passed, i)
	}
	logger.Info("quality filtering complete", zap.Int("excluded", numGenomes-len(passed)), zap.Int("remaining", len(passed)))
	return passed
}

// Rank orders genome indices by descending composite score. Ties keep their input order. A nil
// qualities slice gives every genome the same score, so the input order is kept.
func Rank(indices []int, qualities []Quality, formula Formula) []int {
	ranked := append([]int(nil), indices...)
	if qualities == nil {
		return ranked
	}
	scores := make(map[int]float64, len(ranked))
	for _, idx := range ranked {
		scores[idx] = formula(qualities[idx])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	return ranked
}
