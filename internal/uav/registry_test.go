package uav

import "testing"

// TestRegistryAllocatesLowestFreeSlot covers spec.md §3/§4.1: the
// slot table hands out the lowest free index, separate from the
// never-reused id.
func TestRegistryAllocatesLowestFreeSlot(t *testing.T) {
	r := NewRegistry(4)

	a, err := r.Add("a", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add(a) error = %v", err)
	}
	b, err := r.Add("b", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add(b) error = %v", err)
	}
	if a.Index != 0 || b.Index != 1 {
		t.Fatalf("got indices %d, %d, want 0, 1", a.Index, b.Index)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %d twice", a.ID)
	}
}

// TestRegistryReusesSlotIndexAfterRemove covers spec.md §8 scenario 1:
// a despawned UAV's slot index becomes available to the very next
// spawn, even though its id is never reused.
func TestRegistryReusesSlotIndexAfterRemove(t *testing.T) {
	r := NewRegistry(2)

	first, err := r.Add("alpha", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add(alpha) error = %v", err)
	}
	if first.Index != 0 {
		t.Fatalf("first.Index = %d, want 0", first.Index)
	}

	r.Remove(first.ID)

	second, err := r.Add("bravo", nil, nil, nil, "")
	if err != nil {
		t.Fatalf("Add(bravo) error = %v", err)
	}
	if second.Index != 0 {
		t.Fatalf("second.Index = %d, want 0 (slot 0 reused)", second.Index)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh id, got %d reused", second.ID)
	}
}

// TestRegistryAddRejectsAtCapacity covers the -3 "no free slot" reply
// code: once every slot in the table is occupied, Add must fail
// instead of growing past client_limit.
func TestRegistryAddRejectsAtCapacity(t *testing.T) {
	r := NewRegistry(1)

	if _, err := r.Add("alpha", nil, nil, nil, ""); err != nil {
		t.Fatalf("Add(alpha) error = %v", err)
	}
	if _, err := r.Add("bravo", nil, nil, nil, ""); err == nil {
		t.Fatal("Add(bravo) at capacity: want error, got nil")
	}
	if got := r.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}
}
