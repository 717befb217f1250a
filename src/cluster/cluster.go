// Package cluster implements the quality-aware greedy clustering used to dereplicate genomes.
//
// Genomes are visited in rank order. The first unassigned genome becomes the representative of a
// new cluster and every later unassigned genome is compared against it, either with MinHash alone
// or with MinHash as a cheap prefilter for an exact ANI calculation. Genomes that pass join the
// cluster; the rest stay available for later representatives.
package cluster

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/workers"
)

// Method is the ANI calculation used to decide cluster membership
type Method int

const (
	// MinHashFastANI screens with MinHash and confirms with the exact oracle
	MinHashFastANI Method = iota
	// MinHashOnly uses the MinHash estimate directly
	MinHashOnly
)

// method names as used on the command line
const (
	MinHashFastANIName = "minhash+fastani"
	MinHashOnlyName    = "minhash"
)

// String returns the command line name of the method
func (m Method) String() string {
	switch m {
	case MinHashOnly:
		return MinHashOnlyName
	case MinHashFastANI:
		return MinHashFastANIName
	}
	return "unknown"
}

// ParseMethod converts a command line name to a Method
func ParseMethod(name string) (Method, error) {
	switch name {
	case MinHashFastANIName:
		return MinHashFastANI, nil
	case MinHashOnlyName:
		return MinHashOnly, nil
	}
	return 0, errors.Errorf("unknown ANI method %q (choose %s or %s)", name, MinHashFastANIName, MinHashOnlyName)
}

// Estimator gives the approximate ANI (%) between two genomes, by genome index
type Estimator interface {
	Estimate(a, b int) (float64, error)
}

// Oracle gives the exact ANI (%) between two genomes, by genome path
type Oracle interface {
	ANI(a, b string) (float64, error)
}

// Params are the clustering thresholds
type Params struct {
	ANI          float64 // ANI required to join a cluster
	PreThreshold float64 // MinHash ANI required before the oracle is consulted
	Method       Method
}

// Validate checks the thresholds make sense for the method
func (p Params) Validate() error {
	if p.ANI <= 0 || p.ANI > 100 {
		return errors.Errorf("ANI threshold must be in (0, 100]: %v", p.ANI)
	}
	if p.Method == MinHashFastANI && (p.PreThreshold < 0 || p.PreThreshold > 100) {
		return errors.Errorf("MinHash prethreshold must be in [0, 100]: %v", p.PreThreshold)
	}
	return nil
}

// Stats counts the work done during a clustering run
type Stats struct {
	Approximate int64 // MinHash comparisons
	Exact       int64 // oracle calls
}

// Engine clusters a set of genomes
type Engine struct {
	genomes   []string
	estimator Estimator
	oracle    Oracle
	params    Params
	pool      *workers.Pool
	stats     Stats
}

// NewEngine returns a clustering engine. The oracle may be nil when the method is MinHashOnly.
func NewEngine(genomes []string, estimator Estimator, oracle Oracle, params Params, pool *workers.Pool) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if estimator == nil {
		return nil, errors.New("no ANI estimator provided")
	}
	if params.Method == MinHashFastANI && oracle == nil {
		return nil, errors.Errorf("method %v needs an exact ANI oracle", params.Method)
	}
	if pool == nil {
		pool = workers.New(1)
	}
	return &Engine{
		genomes:   genomes,
		estimator: estimator,
		oracle:    oracle,
		params:    params,
		pool:      pool,
	}, nil
}

// Stats returns the work counters for the most recent run
func (Engine *Engine) Stats() Stats {
	return Stats{
		Approximate: atomic.LoadInt64(&Engine.stats.Approximate),
		Exact:       atomic.LoadInt64(&Engine.stats.Exact),
	}
}

// Cluster partitions the ranked genome indices. Each returned cluster starts with its
// representative, and clusters are ordered by when their representative was chosen. Any
// estimator or oracle error aborts the run and no clusters are returned.
func (Engine *Engine) Cluster(ranked []int) ([][]int, error) {
	Engine.stats = Stats{}
	for _, idx := range ranked {
		if idx < 0 || idx >= len(Engine.genomes) {
			return nil, errors.Errorf("genome index out of range: %d", idx)
		}
	}

	// assigned is indexed by rank position
	assigned := make([]bool, len(ranked))
	clusters := [][]int{}
	for pos, rep := range ranked {
		if assigned[pos] {
			continue
		}
		assigned[pos] = true
		cluster := []int{rep}

		// snapshot the candidates before the sweep so the comparisons don't depend on scheduling
		candidates := []int{}
		for other := pos + 1; other < len(ranked); other++ {
			if !assigned[other] {
				candidates = append(candidates, other)
			}
		}
		joins, err := Engine.sweep(rep, ranked, candidates)
		if err != nil {
			return nil, err
		}

		// apply the decisions in rank order
		for i, other := range candidates {
			if joins[i] {
				assigned[other] = true
				cluster = append(cluster, ranked[other])
			}
		}
		logger.Debug("formed cluster", zap.String("representative", Engine.genomes[rep]), zap.Int("size", len(cluster)), zap.Int("compared", len(candidates)))
		clusters = append(clusters, cluster)
	}
	stats := Engine.Stats()
	logger.Info("clustering complete", zap.Int("clusters", len(clusters)), zap.Int64("minhash comparisons", stats.Approximate), zap.Int64("exact ANI calculations", stats.Exact))
	return clusters, nil
}

// sweep decides, in parallel, which candidate rank positions join the representative's cluster
func (Engine *Engine) sweep(rep int, ranked, candidates []int) ([]bool, error) {
	joins := make([]bool, len(candidates))
	err := Engine.pool.Run(len(candidates), func(i int) error {
		ok, err := Engine.isMember(rep, ranked[candidates[i]])
		if err != nil {
			return err
		}
		joins[i] = ok
		return nil
	})
	return joins, err
}

// isMember runs the ANI test for a single representative/candidate pair
func (Engine *Engine) isMember(rep, candidate int) (bool, error) {
	atomic.AddInt64(&Engine.stats.Approximate, 1)
	approx, err := Engine.estimator.Estimate(rep, candidate)
	if err != nil {
		return false, errors.Wrapf(err, "MinHash ANI failed for %v vs %v", Engine.genomes[rep], Engine.genomes[candidate])
	}
	switch Engine.params.Method {
	case MinHashOnly:
		return approx >= Engine.params.ANI, nil
	case MinHashFastANI:
		if approx < Engine.params.PreThreshold {
			return false, nil
		}
		atomic.AddInt64(&Engine.stats.Exact, 1)
		exact, err := Engine.oracle.ANI(Engine.genomes[rep], Engine.genomes[candidate])
		if err != nil {
			return false, errors.Wrapf(err, "exact ANI failed for %v vs %v", Engine.genomes[rep], Engine.genomes[candidate])
		}
		logger.Debug("exact ANI", zap.String("representative", Engine.genomes[rep]), zap.String("genome", Engine.genomes[candidate]), zap.Float64("minhash", approx), zap.Float64("ani", exact))
		return exact >= Engine.params.ANI, nil
	}
	return false, errors.Errorf("unknown method: %d", Engine.params.Method)
}
