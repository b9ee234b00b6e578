// Package band implements the row-band parallel scheduler: it partitions
// an image's rows into bands of grain_size output rows, extends each
// band's read range by the box/guided filter's window margin so every
// worker is self-sufficient (no cross-worker row reads), and dispatches
// bands to a pool of goroutines that claim the next band from a shared
// atomic counter. Bands are independent once their overlap is read, so
// no cross-worker synchronization happens during computation.
package band

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gostereo/disparity/internal/engine"
	"github.com/gostereo/disparity/internal/scratch"
)

// Range describes one dispatched unit of work: Start/End is the original
// (non-extended) sub-interval of output rows this band is responsible for
// writing; ReadStart/ReadEnd is the extended interval a worker must feed
// through its Scaffold to prime the incremental window state, including
// margin rows that belong to a neighboring band's output (those margin
// rows are computed but discarded, not written).
type Range struct {
	Start, End         int
	ReadStart, ReadEnd int
}

// Plan partitions [0, height) into bands of at most grainSize output rows.
// half is the one-sided context a centered window of the given size needs
// (windowSize-1)/2; the total read overlap between adjacent bands is
// windowSize-1, split evenly before and after each band's own interval so
// that every band can produce its output using only rows it reads itself.
// A centered window needs context on both sides of every row it emits,
// so the window_size-1 overlap budget is split symmetrically rather than
// extended one-sidedly (see DESIGN.md).
func Plan(height, grainSize, windowSize int) []Range {
	if grainSize <= 0 {
		grainSize = height
	}
	half := (windowSize - 1) / 2

	var bands []Range
	for start := 0; start < height; start += grainSize {
		end := start + grainSize
		if end > height {
			end = height
		}
		readStart := start - half
		if readStart < 0 {
			readStart = 0
		}
		readEnd := end + half
		if readEnd > height {
			readEnd = height
		}
		bands = append(bands, Range{Start: start, End: end, ReadStart: readStart, ReadEnd: readEnd})
	}
	return bands
}

// Stats accumulates scheduler-level counters across all workers in one
// Run call.
type Stats struct {
	Bands         atomic.Int32
	RowsProcessed atomic.Int64
}

// Run dispatches the bands in plan to a pool of at most
// runtime.GOMAXPROCS(0) goroutines, each claiming the next unclaimed band
// from an atomic counter, borrowing a scratch.Set from pool for the
// duration of its bands, and writing disparities for its bands' original
// (non-extended) row ranges into out. left and right must be non-nil; top
// is nil in binocular mode. logger and stats may be nil.
func Run(
	cfg engine.Config,
	plan []Range,
	pool *scratch.Pool,
	left, right, top engine.RowSource,
	out engine.Output,
	logger *slog.Logger,
	stats *Stats,
) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(plan) == 0 {
		return
	}

	half := (cfg.Params.WindowSize - 1) / 2
	outW := cfg.OutWidth()

	workers := runtime.GOMAXPROCS(0)
	if workers > len(plan) {
		workers = len(plan)
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			set := pool.Acquire(cfg)
			defer pool.Release(set)

			scratchRow := make([]float32, outW)

			for {
				i := next.Add(1) - 1
				if i >= int64(len(plan)) {
					return
				}
				b := plan[i]
				set.Scaffold.Reset()

				for y := b.ReadStart; y < b.ReadEnd; y++ {
					set.Scaffold.RunRow(left, right, top, y, scratchRow)
					trueRow := y - half
					if trueRow < b.Start || trueRow >= b.End {
						continue
					}
					copy(out.Row(trueRow), scratchRow)
				}
				if stats != nil {
					stats.Bands.Add(1)
					stats.RowsProcessed.Add(int64(b.End - b.Start))
				}
				logger.Debug("band complete", "start", b.Start, "end", b.End)
			}
		}()
	}
	wg.Wait()
}
