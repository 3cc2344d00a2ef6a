package raid

import "testing"

func TestTryRegisterAssignsSmallestFreeSlot(t *testing.T) {
	r := New(4)

	slot, ok := r.TryRegister(1, 0)
	if !ok || slot != 0 {
		t.Fatalf("expected slot 0, got %d ok=%v", slot, ok)
	}
	slot, ok = r.TryRegister(2, 0)
	if !ok || slot != 1 {
		t.Fatalf("expected slot 1, got %d ok=%v", slot, ok)
	}

	r.RemoveSlot(0)
	slot, ok = r.TryRegister(3, 0)
	if !ok || slot != 0 {
		t.Fatalf("expected freed slot 0 reused, got %d ok=%v", slot, ok)
	}
}

func TestTryRegisterRejectsDuplicateEntity(t *testing.T) {
	r := New(4)
	r.TryRegister(1, 0)
	if _, ok := r.TryRegister(1, 0); ok {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestTryRegisterRejectsWhenFull(t *testing.T) {
	r := New(1)
	r.TryRegister(1, 0)
	if _, ok := r.TryRegister(2, 0); ok {
		t.Fatal("expected registration to fail when registry is full")
	}
}

func TestSwapSlotsBothOccupied(t *testing.T) {
	r := New(4)
	r.TryRegister(1, 0)
	r.TryRegister(2, 0)

	r.SwapSlots(0, 1)

	if slot, _ := r.SlotFor(1); slot != 1 {
		t.Fatalf("expected entity 1 in slot 1, got %d", slot)
	}
	if slot, _ := r.SlotFor(2); slot != 0 {
		t.Fatalf("expected entity 2 in slot 0, got %d", slot)
	}
}

func TestSwapSlotsOneEmpty(t *testing.T) {
	r := New(4)
	r.TryRegister(1, 0)

	r.SwapSlots(0, 2)

	if slot, ok := r.SlotFor(1); !ok || slot != 2 {
		t.Fatalf("expected entity 1 moved to slot 2, got %d ok=%v", slot, ok)
	}
	if r.Len() != 1 {
		t.Fatalf("expected exactly one occupied slot, got %d", r.Len())
	}
}

func TestUpdateDisciplineNoOpWhenUnregistered(t *testing.T) {
	r := New(4)
	r.UpdateDiscipline(99, 1, 2) // must not panic
	if r.Len() != 0 {
		t.Fatalf("expected no side effect, got %d occupied", r.Len())
	}
}

func TestClearDropsAllEntries(t *testing.T) {
	r := New(4)
	r.TryRegister(1, 0)
	r.TryRegister(2, 0)
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("expected registry empty after Clear, got %d", r.Len())
	}
	if _, ok := r.SlotFor(1); ok {
		t.Fatal("expected reverse index cleared too")
	}
}

func TestRemoveSlotNoOpWhenEmpty(t *testing.T) {
	r := New(4)
	r.RemoveSlot(0) // must not panic
	if r.Len() != 0 {
		t.Fatalf("expected no change, got %d", r.Len())
	}
}
