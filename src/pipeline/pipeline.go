// Package pipeline strings the galah stages together. Sketching runs as a streaming pipeline of
// processes, following S. Lampa's composable pipelines pattern
// (https://blog.gopheracademy.com/advent-2015/composable-pipelines-improvements/); the cluster and
// dist commands call Dereplicate and ReportDistances.
package pipeline

// BUFFERSIZE is the size of the buffer used by the pipeline channels
const BUFFERSIZE int = 64

// process is a pipeline stage
type process interface {
	Run()
}

// Pipeline runs a chain of connected processes
type Pipeline struct {
	processes []process
}

// NewPipeline is the pipeline constructor
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// AddProcesses appends stages to the pipeline, in the order they were connected
func (Pipeline *Pipeline) AddProcesses(procs ...process) {
	Pipeline.processes = append(Pipeline.processes, procs...)
}

// Run starts every stage in its own goroutine, except the last, which runs in the foreground
// and so returns once the pipeline has drained
func (Pipeline *Pipeline) Run() {
	last := len(Pipeline.processes) - 1
	for i, proc := range Pipeline.processes {
		if i == last {
			proc.Run()
			return
		}
		go proc.Run()
	}
}
