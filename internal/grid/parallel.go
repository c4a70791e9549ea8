package grid

import "sync"

// Workers is the number of goroutines ParallelRows fans out to.
const Workers = 8

// ParallelRows runs fn across row bands using multiple goroutines.
// Bands never overlap, so fn may write rows [startY, endY) of a shared
// output without locking.
func ParallelRows(h int, fn func(startY, endY int)) {
	rowsPerWorker := (h + Workers - 1) / Workers
	var wg sync.WaitGroup
	for worker := 0; worker < Workers; worker++ {
		startY := worker * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > h {
			endY = h
		}
		if startY >= h {
			break
		}
		wg.Add(1)
		go func(sy, ey int) {
			defer wg.Done()
			fn(sy, ey)
		}(startY, endY)
	}
	wg.Wait()
}
