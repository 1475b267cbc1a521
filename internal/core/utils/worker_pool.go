package utils

import "sync"

type CompletedTask[T any] struct {
	Result T
	Error  error
}

// RunInPool applies worker to every item using at most maxWorkers goroutines
// and blocks until all items are done. Results are returned in input order.
func RunInPool[In any, Out any](worker func(In) (Out, error), items []In, maxWorkers int) []CompletedTask[Out] {
	completed := make([]CompletedTask[Out], len(items))

	workers := min(len(items), maxWorkers)
	if workers <= 0 {
		return completed
	}

	queue := make(chan int)

	wg := sync.WaitGroup{}
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			for idx := range queue {
				res, err := worker(items[idx])
				if err != nil {
					completed[idx] = CompletedTask[Out]{Error: err}
				} else {
					completed[idx] = CompletedTask[Out]{Result: res, Error: nil}
				}
			}
		}()
	}

	for idx := range items {
		queue <- idx
	}
	close(queue)

	wg.Wait()

	return completed
}
