package ring

import "testing"

func TestJobRingEffectiveCapacityIsOneLessThanSize(t *testing.T) {
	r := New[int](4)
	if r.Cap() != 3 {
		t.Fatalf("expected usable capacity 3 for a size-4 ring, got %d", r.Cap())
	}
	a, b, c := 1, 2, 3
	if !r.Enqueue(&a) || !r.Enqueue(&b) || !r.Enqueue(&c) {
		t.Fatal("expected to fill all three usable slots")
	}
	d := 4
	if r.Enqueue(&d) {
		t.Fatal("ring should report full with capacity slots already used")
	}
	if !r.Full() {
		t.Fatal("Full() should report true")
	}
}

func TestJobRingFIFOOrder(t *testing.T) {
	r := New[string](3)
	x, y := "first", "second"
	r.Enqueue(&x)
	r.Enqueue(&y)
	if got := r.Dequeue(); got == nil || *got != "first" {
		t.Fatalf("expected first out, got %v", got)
	}
	if got := r.Dequeue(); got == nil || *got != "second" {
		t.Fatalf("expected second out, got %v", got)
	}
	if got := r.Dequeue(); got != nil {
		t.Fatalf("expected nil on empty ring, got %v", got)
	}
}

func TestJobRingEmptyOnConstruction(t *testing.T) {
	r := New[int](5)
	if !r.Empty() {
		t.Fatal("a fresh ring should be empty")
	}
	if r.Dequeue() != nil {
		t.Fatal("dequeue on empty ring must return nil, not panic")
	}
}

func TestJobRingWrapsAroundBackingSlice(t *testing.T) {
	r := New[int](3) // usable capacity 2
	a, b, c, d := 1, 2, 3, 4
	r.Enqueue(&a)
	r.Enqueue(&b)
	r.Dequeue()
	r.Enqueue(&c) // wraps head back to slot 0
	if got := r.Dequeue(); got == nil || *got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	if got := r.Dequeue(); got == nil || *got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	r.Enqueue(&d)
	if got := r.Dequeue(); got == nil || *got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
}

func TestJobRingLenTracksWraparound(t *testing.T) {
	r := New[int](3) // usable capacity 2; enqueueing c wraps head back to slot 0
	a, b, c := 1, 2, 3
	r.Enqueue(&a)
	r.Enqueue(&b)
	r.Dequeue()
	r.Enqueue(&c)
	if r.Len() != 2 {
		t.Fatalf("expected len 2, got %d", r.Len())
	}
}

func TestNewClampsUndersizedCapacity(t *testing.T) {
	r := New[int](0)
	if r.Cap() != 1 {
		t.Fatalf("expected minimum usable capacity of 1, got %d", r.Cap())
	}
}
