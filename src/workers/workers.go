// Package workers provides the fixed size pool that every parallel stage of galah runs on.
package workers

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrPoolInitialised is returned if the process-wide pool is set up more than once
var ErrPoolInitialised = errors.New("programming error: worker pool initialised multiple times")

var (
	globalPool *Pool
	globalLock sync.Mutex
)

// Pool runs batches of independent tasks with a bounded number in flight
type Pool struct {
	size int
}

// New returns a pool of the given size (minimum 1)
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

// Init creates the process-wide pool. It may only be called once per process.
func Init(size int) (*Pool, error) {
	globalLock.Lock()
	defer globalLock.Unlock()
	if globalPool != nil {
		return nil, ErrPoolInitialised
	}
	globalPool = New(size)
	return globalPool, nil
}

// Size is the maximum number of tasks run at once
func (Pool *Pool) Size() int {
	return Pool.size
}

// Run calls task for 0..n-1. The first error stops any tasks that haven't started and is returned
// once every running task has finished.
func (Pool *Pool) Run(n int, task func(i int) error) error {
	if n == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(Pool.size)
	for i := 0; i < n; i++ {
		i := i
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return task(i)
		})
	}
	return g.Wait()
}
