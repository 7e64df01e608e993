package estack

import "sync"

// A rowFunc processes one output row. `samples` and `rows` are scratch
// slices owned by the worker, each with room for one entry per frame.
type rowFunc func(y int, samples []float64, rows [][]float64)

// forEachRow uses a pool of goroutines to run fn over rows [0,nRows).
// Each row is handed to exactly one worker, and the call returns once
// every row is done.
func (c Combiner)forEachRow(nRows, nFrames int, fn rowFunc) {
	if nRows == 0 {
		return
	}

	var wg sync.WaitGroup
	jobsChan := make(chan int, nRows)

	nWorkers := c.numWorkers(nRows)
	for i:=0; i<nWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			samples := make([]float64, nFrames)
			rows := make([][]float64, nFrames)
			for y := range jobsChan {
				fn(y, samples, rows)
			}
		}()
	}

	for y:=0; y<nRows; y++ {
		jobsChan<- y
	}
	close(jobsChan)

	wg.Wait()
}
