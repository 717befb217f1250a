package pipeline

/*
 this part of the pipeline streams genome FASTA files, sketches them and stores the sketches for the clustering stage
*/

import (
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/will-rowe/galah/src/logger"
	"github.com/will-rowe/galah/src/minhash"
	"github.com/will-rowe/galah/src/seqio"
)

// genomeJob links a genome index to its file
type genomeJob struct {
	index int
	path  string
}

// sketchResult is a sketched genome, or the error raised while sketching it
type sketchResult struct {
	genomeJob
	sketch *minhash.Sketch
	length int
	err    error
}

// GenomeStreamer is a pipeline process that streams genome files for sketching
type GenomeStreamer struct {
	store  *SketchStore
	input  []int
	output chan genomeJob
}

// NewGenomeStreamer is the constructor
func NewGenomeStreamer(store *SketchStore) *GenomeStreamer {
	return &GenomeStreamer{store: store, output: make(chan genomeJob, BUFFERSIZE)}
}

// Connect is the method to connect the GenomeStreamer to the genome indices it should stream
func (proc *GenomeStreamer) Connect(input []int) {
	proc.input = input
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *GenomeStreamer) Run() {
	defer close(proc.output)
	for _, idx := range proc.input {
		proc.output <- genomeJob{index: idx, path: proc.store.genomes[idx]}
	}
}

// GenomeSketcher is a pipeline process that loads and sketches genomes
type GenomeSketcher struct {
	store      *SketchStore
	numMinions int
	failed     int32
	input      chan genomeJob
	output     chan sketchResult
}

// NewGenomeSketcher is the constructor
func NewGenomeSketcher(store *SketchStore, numMinions int) *GenomeSketcher {
	if numMinions < 1 {
		numMinions = 1
	}
	return &GenomeSketcher{store: store, numMinions: numMinions, output: make(chan sketchResult, BUFFERSIZE)}
}

// Connect is the method to join the input of this process with the output of GenomeStreamer
func (proc *GenomeSketcher) Connect(previous *GenomeStreamer) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *GenomeSketcher) Run() {
	defer close(proc.output)
	var wg sync.WaitGroup
	wg.Add(proc.numMinions)
	for i := 0; i < proc.numMinions; i++ {
		go func() {
			defer wg.Done()
			for job := range proc.input {
				// the run is over once a genome fails, so only drain the channel
				if atomic.LoadInt32(&proc.failed) == 1 {
					continue
				}
				result := sketchResult{genomeJob: job}
				genome, err := seqio.LoadGenome(job.path)
				if err != nil {
					result.err = err
				} else {
					result.length = genome.Length()
					result.sketch, result.err = genome.Sketch(proc.store.kmerSize, proc.store.sketchSize)
				}
				if result.err != nil {
					atomic.StoreInt32(&proc.failed, 1)
				}
				proc.output <- result
			}
		}()
	}
	wg.Wait()
}

// SketchCollector is a pipeline process that adds sketches to the store
type SketchCollector struct {
	store *SketchStore
	input chan sketchResult
	err   error
}

// NewSketchCollector is the constructor
func NewSketchCollector(store *SketchStore) *SketchCollector {
	return &SketchCollector{store: store}
}

// Connect is the method to join the input of this process with the output of GenomeSketcher
func (proc *SketchCollector) Connect(previous *GenomeSketcher) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SketchCollector) Run() {
	// keep draining after an error so that the upstream minions can finish
	for result := range proc.input {
		if result.err != nil {
			if proc.err == nil {
				proc.err = result.err
			}
			continue
		}
		logger.Debug("sketched genome", zap.String("genome", result.path), zap.Int("bases", result.length), zap.Int("hashes", len(result.sketch.Hashes)))
		proc.store.sketches.Set(result.path, result.sketch)
	}
}

// SketchStore holds the sketch of each genome for the duration of a run and estimates ANI from them
type SketchStore struct {
	genomes    []string
	kmerSize   int
	sketchSize int
	sketches   cmap.ConcurrentMap
}

// NewSketchStore returns an empty store for the given genomes
func NewSketchStore(genomes []string, kmerSize, sketchSize int) (*SketchStore, error) {
	if kmerSize < 1 || kmerSize > minhash.MaxKmerSize {
		return nil, errors.Errorf("k-mer length must be between 1 and %d: %d", minhash.MaxKmerSize, kmerSize)
	}
	if sketchSize < 1 {
		return nil, errors.Errorf("number of hashes must be positive: %d", sketchSize)
	}
	return &SketchStore{
		genomes:    genomes,
		kmerSize:   kmerSize,
		sketchSize: sketchSize,
		sketches:   cmap.New(),
	}, nil
}

// Len returns the number of sketches currently held
func (SketchStore *SketchStore) Len() int {
	return SketchStore.sketches.Count()
}

// SketchAll sketches the given genomes in parallel, returning the first error encountered
func (SketchStore *SketchStore) SketchAll(indices []int, numMinions int) error {
	todo := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(SketchStore.genomes) {
			return errors.Errorf("genome index out of range: %d", idx)
		}
		if !SketchStore.sketches.Has(SketchStore.genomes[idx]) {
			todo = append(todo, idx)
		}
	}
	if len(todo) == 0 {
		return nil
	}

	// create the pipeline processes and connect them
	streamer := NewGenomeStreamer(SketchStore)
	streamer.Connect(todo)
	sketcher := NewGenomeSketcher(SketchStore, numMinions)
	sketcher.Connect(streamer)
	collector := NewSketchCollector(SketchStore)
	collector.Connect(sketcher)

	// submit each process to a new pipeline and run it
	sketchingPipeline := NewPipeline()
	sketchingPipeline.AddProcesses(streamer, sketcher, collector)
	sketchingPipeline.Run()
	return collector.err
}

// Get returns the sketch for a genome, sketching it now if it has not been seen yet
func (SketchStore *SketchStore) Get(idx int) (*minhash.Sketch, error) {
	if idx < 0 || idx >= len(SketchStore.genomes) {
		return nil, errors.Errorf("genome index out of range: %d", idx)
	}
	path := SketchStore.genomes[idx]
	if cached, ok := SketchStore.sketches.Get(path); ok {
		return cached.(*minhash.Sketch), nil
	}
	genome, err := seqio.LoadGenome(path)
	if err != nil {
		return nil, err
	}
	sketch, err := genome.Sketch(SketchStore.kmerSize, SketchStore.sketchSize)
	if err != nil {
		return nil, err
	}
	SketchStore.sketches.SetIfAbsent(path, sketch)
	return sketch, nil
}

// Estimate gives the MinHash ANI between two genomes, satisfying cluster.Estimator
func (SketchStore *SketchStore) Estimate(a, b int) (float64, error) {
	sketchA, err := SketchStore.Get(a)
	if err != nil {
		return 0, err
	}
	sketchB, err := SketchStore.Get(b)
	if err != nil {
		return 0, err
	}
	ani, err := sketchA.ANI(sketchB)
	if err != nil {
		return 0, errors.Wrapf(err, "%v vs %v", SketchStore.genomes[a], SketchStore.genomes[b])
	}
	return ani, nil
}
