package parallel

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// HeadPartition is one path-prefix-partitioned slice of a Space, tagged
// with the head symbol it was grouped under (see
// pkg/metta.Space.PartitionByHead), to be processed independently by
// PathMap.
type HeadPartition struct {
	Head   string
	Values []interface{}
}

// pathMapResult carries one partition's transformed output back to the
// merge step alongside the partition's original index, so the final
// slice can be reassembled in the caller-supplied partition order
// (itself Space insertion order, per spec.md section 5's ordering
// invariant) rather than completion order.
type pathMapResult struct {
	index  int
	values []interface{}
}

// PathMap runs fn over every value in each partition concurrently,
// dispatching one task per partition onto pool via SubmitPartition (so
// the pool's deadlock detector and scaling policy see the partition's
// head symbol rather than an anonymous closure), using an errgroup to
// propagate the first error while letting in-flight partitions finish.
// This is the parallel path-map spec.md section 5 names as concurrency
// model item (a): "a parallel path-map implementation for set operations
// on large Spaces, using scoped OS threads with mpsc-dispatched zippers
// partitioned by path prefix" — WorkerPool supplies the scoped-goroutine
// pool (adapted from this package's original goal-evaluation pool), and
// errgroup supplies the mpsc-style fan-in/error propagation in place of
// a hand-rolled channel-merge.
func PathMap(ctx context.Context, pool *WorkerPool, partitions []HeadPartition, fn func(interface{}) (interface{}, error)) ([]interface{}, error) {
	g, gctx := errgroup.WithContext(ctx)
	resultsCh := make(chan pathMapResult, len(partitions))

	for i, part := range partitions {
		i, part := i, part
		g.Go(func() error {
			done := make(chan error, 1)
			submitErr := pool.SubmitPartition(gctx, part.Head, func() {
				out := make([]interface{}, 0, len(part.Values))
				for _, v := range part.Values {
					mapped, err := fn(v)
					if err != nil {
						done <- err
						return
					}
					out = append(out, mapped)
				}
				resultsCh <- pathMapResult{index: i, values: out}
				done <- nil
			})
			if submitErr != nil {
				return submitErr
			}
			select {
			case err := <-done:
				return err
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(resultsCh)

	batches := make([]pathMapResult, 0, len(partitions))
	for r := range resultsCh {
		batches = append(batches, r)
	}
	sort.Slice(batches, func(a, b int) bool { return batches[a].index < batches[b].index })

	var out []interface{}
	for _, b := range batches {
		out = append(out, b.values...)
	}
	return out, nil
}
