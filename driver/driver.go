// Package driver is the engine's parallel driver: it splits N Monte
// Carlo runs across a worker pool and merges the resulting
// count matrices. The chunking and seed-striding strategy is the teacher's
// Simulation.Run/Batch split (a sync.WaitGroup fan-out over equal-ish
// batches with a remainder spread across the first workers), coordinated
// here with errgroup.Group. The only error a worker returns is the
// context's error when ctx is already cancelled before its chunk starts;
// RunMany itself reports no errors.
package driver

import (
	"context"
	"runtime"
	"time"

	"github.com/ncaaforecast/engine/propagator"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultSLOPerRun is the empirical guidance: a re-simulation of <=1000
// runs should complete in < 2s, i.e. ~2ms/run on a modern CPU.
const DefaultSLOPerRun = 2 * time.Millisecond

// Workers returns hardware concurrency minus one, floored at one.
func Workers() int {
	w := runtime.NumCPU() - 1
	if w < 1 {
		return 1
	}
	return w
}

// Run splits count Monte Carlo runs across w workers, seeding each worker's
// chunk with a disjoint sub-sequence of baseSeed+runIndex and merging the
// resulting count matrices elementwise. Each worker's base seed is baseSeed
// plus its starting runIndex, so together the workers use exactly the seeds
// baseSeed..baseSeed+count-1: the merged matrix is identical to a serial
// RunMany(baseSeed, count) and depends only on (count, baseSeed), not on w.
func Run(ctx context.Context, p *propagator.Propagator, baseSeed int64, count, w int, logger *logrus.Logger) (*propagator.CountMatrix, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if w < 1 {
		w = 1
	}
	if count < 1 {
		return propagator.NewCountMatrix(), nil
	}
	if w > count {
		w = count
	}

	chunkSize := count / w
	remainder := count % w

	matrices := make([]*propagator.CountMatrix, w)
	group, gctx := errgroup.WithContext(ctx)

	runIndex := 0
	for worker := 0; worker < w; worker++ {
		size := chunkSize
		if worker < remainder {
			size++
		}
		start := runIndex
		idx := worker
		runIndex += size

		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			matrices[idx] = p.RunMany(baseSeed+int64(start), size)
			return nil
		})
	}

	start := time.Now()
	if err := group.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	merged := propagator.NewCountMatrix()
	for _, m := range matrices {
		merged.Merge(m)
	}

	target := time.Duration(count) * DefaultSLOPerRun / time.Duration(w)
	if elapsed > target {
		logger.WithFields(logrus.Fields{
			"simulation_count": count,
			"worker_count":     w,
			"elapsed_ms":       elapsed.Milliseconds(),
			"target_ms":        target.Milliseconds(),
		}).Warn("simulation run exceeded its wall-clock SLO target")
	}

	return merged, nil
}
