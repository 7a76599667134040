package sim

import (
	"sync/atomic"
	"testing"
)

func TestParallelRunCoversEveryIndexOnce(t *testing.T) {
	for _, tc := range []struct {
		name      string
		workers   int
		threshold int
		n         int
	}{
		{"serial below threshold", 4, 64, 10},
		{"parallel", 4, 8, 103},
		{"single worker", 1, 1, 50},
		{"more workers than items", 8, 1, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newParallelState(tc.workers, tc.threshold)
			defer p.stopWorkers()

			hits := make([]int32, tc.n)
			for round := 0; round < 3; round++ {
				p.run(tc.n, func(start, end int, scratch *workerScratch) {
					if scratch == nil {
						t.Error("nil scratch")
					}
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				})
			}
			for i, h := range hits {
				if h != 3 {
					t.Fatalf("index %d processed %d times, want 3", i, h)
				}
			}
		})
	}
}

func TestParallelStopIsIdempotent(t *testing.T) {
	p := newParallelState(2, 1)
	p.run(10, func(int, int, *workerScratch) {})
	p.stopWorkers()
	p.stopWorkers()
}
