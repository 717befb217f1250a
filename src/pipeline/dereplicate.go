package pipeline

/*
 this part of the pipeline filters and ranks the genomes, sketches them and then runs the greedy clustering
*/

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/cluster"
	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/misc"
	"github.com/will-rowe/galah/src/quality"
)

// Dereplicate clusters the genomes and returns the clusters as genome indices, representative
// first. The quality table may be nil, in which case no genome is filtered and the input order
// decides the representatives. The oracle is only needed for the two-stage method.
func Dereplicate(info *Info, genomes []string, table quality.Lookup, oracle cluster.Oracle) ([][]int, error) {
	if len(genomes) == 0 {
		return [][]int{}, nil
	}
	formulaName := info.Cluster.QualityFormula
	if formulaName == "" {
		formulaName = quality.DefaultFormula
	}
	formula, err := quality.GetFormula(formulaName)
	if err != nil {
		return nil, err
	}

	// link the genomes to their quality records
	var qualities []quality.Quality
	if table != nil {
		logger.Info("reading genome qualities...")
		qualities, err = quality.Resolve(genomes, table)
		if err != nil {
			return nil, err
		}
	} else if info.Cluster.UseQualityFilter {
		return nil, errors.New("quality thresholds need a CheckM tab table")
	}
	thresholds := info.Cluster.Thresholds
	if !info.Cluster.UseQualityFilter {
		thresholds = quality.DefaultThresholds()
	}
	passed := quality.Filter(len(genomes), qualities, thresholds)
	ranked := quality.Rank(passed, qualities, formula)
	if len(ranked) == 0 {
		logger.Warn("no genomes passed the quality thresholds")
		return [][]int{}, nil
	}

	// sketch the remaining genomes up front
	logger.Info("sketching genomes...", zap.Int("genomes", len(ranked)), zap.Int("k-mer length", info.KmerSize), zap.Int("num hashes", info.SketchSize))
	store, err := NewSketchStore(genomes, info.KmerSize, info.SketchSize)
	if err != nil {
		return nil, err
	}
	if err := store.SketchAll(ranked, info.Pool().Size()); err != nil {
		return nil, err
	}
	logger.Debug(misc.PrintMemUsage())

	// cluster
	logger.Info("clustering genomes...", zap.Float64("ani", info.Cluster.ANI), zap.Stringer("method", info.Cluster.Method))
	engine, err := cluster.NewEngine(genomes, store, oracle, info.ClusterParams(), info.Pool())
	if err != nil {
		return nil, err
	}
	return engine.Cluster(ranked)
}
