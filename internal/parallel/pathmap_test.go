package parallel

import (
	"context"
	"fmt"
	"testing"
)

func TestPathMapPreservesPartitionOrder(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Shutdown()

	partitions := []HeadPartition{
		{Head: "a", Values: []interface{}{1, 2}},
		{Head: "b", Values: []interface{}{3, 4}},
		{Head: "c", Values: []interface{}{5}},
	}

	out, err := PathMap(context.Background(), pool, partitions, func(v interface{}) (interface{}, error) {
		return v.(int) * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{10, 20, 30, 40, 50}
	if len(out) != len(want) {
		t.Fatalf("expected %d results, got %d: %v", len(want), len(out), out)
	}
	for i, w := range want {
		if out[i].(int) != w {
			t.Fatalf("at index %d: expected %d, got %v", i, w, out[i])
		}
	}
}

func TestPathMapPropagatesFirstError(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Shutdown()

	partitions := []HeadPartition{
		{Head: "a", Values: []interface{}{1}},
		{Head: "b", Values: []interface{}{2}},
	}

	_, err := PathMap(context.Background(), pool, partitions, func(v interface{}) (interface{}, error) {
		if v.(int) == 2 {
			return nil, fmt.Errorf("boom")
		}
		return v, nil
	})
	if err == nil {
		t.Fatalf("expected an error to propagate")
	}
}
