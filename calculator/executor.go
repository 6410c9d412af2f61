package calculator

import (
	"sync"
	"time"
)

// 按行分配任务
type executor struct {
	workers int
}

type task struct {
	start int
	end   int
}

func newExecutor(workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{workers: workers}
}

// dispatchTask splits rows [first, last) into one contiguous block per worker
// and blocks until every block is done. Each row is written by exactly one
// worker, so the result does not depend on the worker count.
func (e *executor) dispatchTask(first, last int, f func(t task)) time.Duration {
	start := time.Now()
	total := last - first
	if total <= 0 {
		return time.Since(start)
	}
	if e.workers == 1 || total < e.workers {
		f(task{start: first, end: last})
		return time.Since(start)
	}

	taskLen, remainder := total/e.workers, total%e.workers
	var wg sync.WaitGroup
	begin := first
	for i := 0; i < e.workers; i++ {
		end := begin + taskLen
		if i < remainder {
			end++
		}
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			f(t)
		}(task{start: begin, end: end})
		begin = end
	}
	wg.Wait()
	return time.Since(start)
}
