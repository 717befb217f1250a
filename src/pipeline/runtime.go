package pipeline

import (
	"github.com/will-rowe/galah/src/cluster"
	"github.com/will-rowe/galah/src/quality"
	"github.com/will-rowe/galah/src/workers"
)

// Info stores the runtime information
type Info struct {
	Version    string
	NumProc    int
	Profiling  bool
	KmerSize   int
	SketchSize int
	Cluster    ClusterCmd
	Dist       DistCmd

	// the following fields are set up at runtime
	pool *workers.Pool
}

// ClusterCmd stores the runtime info for the cluster command
type ClusterCmd struct {
	ANI              float64
	PreThreshold     float64
	Method           cluster.Method
	QualityFormula   string
	Thresholds       quality.Thresholds
	FastANI          string
	FragmentLength   int
	UseQualityFilter bool
}

// DistCmd stores the runtime info for the dist command
type DistCmd struct {
	SQLite string
	Plot   string
}

// AttachPool is a method to attach the worker pool to the runtime
func (Info *Info) AttachPool(pool *workers.Pool) {
	Info.pool = pool
}

// Pool returns the attached worker pool, falling back to a pool sized by NumProc
func (Info *Info) Pool() *workers.Pool {
	if Info.pool == nil {
		Info.pool = workers.New(Info.NumProc)
	}
	return Info.pool
}

// ClusterParams converts the runtime info into clustering thresholds
func (Info *Info) ClusterParams() cluster.Params {
	return cluster.Params{
		ANI:          Info.Cluster.ANI,
		PreThreshold: Info.Cluster.PreThreshold,
		Method:       Info.Cluster.Method,
	}
}
