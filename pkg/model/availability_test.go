package model

import (
	"reflect"
	"testing"
)

func TestToggle_AbsentDefaultsToFalse(t *testing.T) {
	m := AvailabilityMap{}

	next := Toggle(m, "2024-06-03_09:00", "Alice")

	if !IsAvailable(next, "2024-06-03_09:00", "Alice") {
		t.Error("expected first toggle of an absent entry to mark available")
	}
	if len(m) != 0 {
		t.Error("input map was mutated")
	}
}

func TestToggle_DoubleToggleRetainsFalseEntry(t *testing.T) {
	m := AvailabilityMap{}

	once := Toggle(m, "2024-06-03_09:00", "Alice")
	twice := Toggle(once, "2024-06-03_09:00", "Alice")

	if IsAvailable(twice, "2024-06-03_09:00", "Alice") {
		t.Error("expected double toggle to return to unavailable")
	}

	// The entry is set to false, not deleted: the slot remembers who
	// touched it.
	slot, ok := twice["2024-06-03_09:00"]
	if !ok {
		t.Fatal("slot entry was deleted on toggle-off")
	}
	if flag, ok := slot["Alice"]; !ok || flag {
		t.Errorf("expected retained false entry, got present=%v flag=%v", ok, flag)
	}

	if got := AggregateSlot(twice, "2024-06-03_09:00"); got.Count != 0 {
		t.Errorf("expected count 0 after double toggle, got %d", got.Count)
	}
}

func TestToggle_DoesNotDisturbOtherEntries(t *testing.T) {
	m := AvailabilityMap{
		"2024-06-03_09:00": {"Alice": true},
		"2024-06-03_09:30": {"Bob": true, "Carol": false},
	}

	next := Toggle(m, "2024-06-03_09:00", "Bob")

	if !IsAvailable(next, "2024-06-03_09:00", "Alice") {
		t.Error("sibling participant entry changed")
	}
	if !reflect.DeepEqual(next["2024-06-03_09:30"], m["2024-06-03_09:30"]) {
		t.Error("unrelated slot entry changed")
	}
	if !IsAvailable(next, "2024-06-03_09:00", "Bob") {
		t.Error("toggled entry not set")
	}
}

func TestToggle_SequentialParticipantsAccumulate(t *testing.T) {
	// Two participants toggling the same slot, applied as two sequential
	// scoped updates, must both survive.
	m := AvailabilityMap{}
	m = Toggle(m, "2024-06-03_09:00", "Alice")
	m = Toggle(m, "2024-06-03_09:00", "Bob")

	agg := AggregateSlot(m, "2024-06-03_09:00")
	if agg.Count != 2 {
		t.Fatalf("expected count 2, got %d", agg.Count)
	}
	if !reflect.DeepEqual(agg.Names, []string{"Alice", "Bob"}) {
		t.Errorf("expected sorted names [Alice Bob], got %v", agg.Names)
	}
}

func TestIsAvailable_AbsenceIsFalse(t *testing.T) {
	m := AvailabilityMap{"2024-06-03_09:00": {"Alice": true}}

	if IsAvailable(m, "2024-06-03_09:00", "Bob") {
		t.Error("absent participant should be unavailable")
	}
	if IsAvailable(m, "2024-06-04_09:00", "Alice") {
		t.Error("absent slot key should be unavailable")
	}
	if IsAvailable(nil, "2024-06-03_09:00", "Alice") {
		t.Error("nil map should be unavailable")
	}
}

func TestAggregateSlot(t *testing.T) {
	m := AvailabilityMap{
		"2024-06-03_09:00": {"Alice": true, "Bob": false, "Carol": true},
	}

	agg := AggregateSlot(m, "2024-06-03_09:00")
	if agg.Count != 2 {
		t.Errorf("expected count 2, got %d", agg.Count)
	}
	if !reflect.DeepEqual(agg.Names, []string{"Alice", "Carol"}) {
		t.Errorf("expected [Alice Carol], got %v", agg.Names)
	}

	absent := AggregateSlot(m, "2024-06-04_09:00")
	if absent.Count != 0 {
		t.Errorf("expected count 0 for absent key, got %d", absent.Count)
	}
	if absent.Density != DensityFor(0) {
		t.Errorf("expected floor density for absent key, got %v", absent.Density)
	}
}

func TestDensityFor_MonotoneAndBounded(t *testing.T) {
	prev := 0.0
	for count := 0; count <= 20; count++ {
		d := DensityFor(count)
		if d < 0 || d > 1 {
			t.Fatalf("density %v out of [0,1] at count %d", d, count)
		}
		if d < prev {
			t.Fatalf("density decreased from %v to %v at count %d", prev, d, count)
		}
		prev = d
	}

	if DensityFor(0) != 0.3 {
		t.Errorf("expected floor 0.3, got %v", DensityFor(0))
	}
	if DensityFor(1) != 0.5 {
		t.Errorf("expected 0.5 for one participant, got %v", DensityFor(1))
	}
	if DensityFor(10) != 1 {
		t.Errorf("expected cap at 1, got %v", DensityFor(10))
	}
}
