package pipeline

/*
 this part of the pipeline sketches every genome and reports the MinHash ANI for every pair
*/

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/quality"
)

// DistanceRecord is the MinHash ANI between two genomes, with their qualities
type DistanceRecord struct {
	GenomeA  string
	GenomeB  string
	ANI      float64
	QualityA quality.Quality
	QualityB quality.Quality
}

// ReportDistances calculates the MinHash ANI for every unordered pair of genomes and sends the
// records to emit, in row-major order (0-1, 0-2 ... 1-2 ...). Every genome needs a quality. Rows
// are computed in parallel but emitted in order, and the first error from emit stops the run.
func ReportDistances(info *Info, genomes []string, qualities []quality.Quality, emit func(DistanceRecord) error) error {
	if len(qualities) != len(genomes) {
		return errors.Wrapf(quality.ErrMissingQuality, "have %d qualities for %d genomes", len(qualities), len(genomes))
	}
	store, err := NewSketchStore(genomes, info.KmerSize, info.SketchSize)
	if err != nil {
		return err
	}
	all := make([]int, len(genomes))
	for i := range all {
		all[i] = i
	}
	logger.Info("sketching genomes...", zap.Int("genomes", len(genomes)), zap.Int("k-mer length", info.KmerSize), zap.Int("num hashes", info.SketchSize))
	pool := info.Pool()
	if err := store.SketchAll(all, pool.Size()); err != nil {
		return err
	}

	logger.Info("calculating pairwise distances...")
	pairs := 0
	for i := 0; i < len(genomes)-1; i++ {
		row := make([]float64, len(genomes)-i-1)
		err := pool.Run(len(row), func(x int) error {
			ani, err := store.Estimate(i, i+1+x)
			if err != nil {
				return err
			}
			row[x] = ani
			return nil
		})
		if err != nil {
			return err
		}
		for x, ani := range row {
			j := i + 1 + x
			record := DistanceRecord{
				GenomeA:  genomes[i],
				GenomeB:  genomes[j],
				ANI:      ani,
				QualityA: qualities[i],
				QualityB: qualities[j],
			}
			if err := emit(record); err != nil {
				return err
			}
			pairs++
		}
	}
	logger.Info("finished calculating distances", zap.Int("pairs", pairs))
	return nil
}
