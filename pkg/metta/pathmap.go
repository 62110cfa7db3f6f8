package metta

import (
	"context"
	"sort"

	"github.com/gitrdm/mettatron/internal/parallel"
)

// ParallelMap applies fn to every Value in space concurrently, using
// internal/parallel's WorkerPool and path-prefix partitioning (spec.md
// section 5's "parallel path-map implementation for set operations on
// large Spaces... partitioned by path prefix"). Partition order (and so
// the returned slice's order once partitions are internally re-sorted by
// insertion sequence) follows Space.PartitionByHead's head-bucket
// iteration, made deterministic here by sorting bucket keys before
// dispatch; fn itself must not mutate space, since partitions run
// concurrently against a single snapshot taken up front.
func ParallelMap(ctx context.Context, space *Space, pool *parallel.WorkerPool, fn func(Value) (Value, error)) ([]Value, error) {
	groups := space.PartitionByHead()
	heads := make([]string, 0, len(groups))
	for h := range groups {
		heads = append(heads, h)
	}
	sort.Strings(heads)

	partitions := make([]parallel.HeadPartition, len(heads))
	for i, h := range heads {
		vals := groups[h]
		boxed := make([]interface{}, len(vals))
		for j, v := range vals {
			boxed[j] = v
		}
		partitions[i] = parallel.HeadPartition{Head: h, Values: boxed}
	}

	raw, err := parallel.PathMap(ctx, pool, partitions, func(v interface{}) (interface{}, error) {
		return fn(v.(Value))
	})
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(raw))
	for i, v := range raw {
		out[i] = v.(Value)
	}
	return out, nil
}
