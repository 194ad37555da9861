package services

import (
	"reflect"
	"testing"
)

func TestThreadIndexSubtree(t *testing.T) {
	ix := NewThreadIndex()
	ix.Add(2, 1)
	ix.Add(3, 1)
	ix.Add(4, 2)
	ix.Add(5, 4)
	ix.Add(9, 8)

	if got, want := ix.Subtree(1), []uint{1, 2, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Subtree(1) = %v, want %v", got, want)
	}
	if got, want := ix.Subtree(4), []uint{4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Subtree(4) = %v, want %v", got, want)
	}
	if got := ix.Subtree(42); !reflect.DeepEqual(got, []uint{42}) {
		t.Fatalf("unknown id should yield itself only, got %v", got)
	}
}

func TestThreadIndexSurvivesCycles(t *testing.T) {
	ix := NewThreadIndex()
	ix.Add(2, 1)
	ix.Add(3, 2)
	ix.Add(1, 3) // corrupt: 1 -> 2 -> 3 -> 1

	got := ix.Subtree(1)
	if want := []uint{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Subtree with cycle = %v, want %v", got, want)
	}
}
