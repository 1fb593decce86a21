package model

import "sort"

// AvailabilityMap maps a slot key ("2006-01-02_15:04") to the participants
// who have touched that slot and their current flag. A missing key at either
// level means "not marked available", never an error. Entries are set to
// false on toggle-off and retained, so the map records who ever touched a
// slot.
type AvailabilityMap map[string]map[string]bool

// Density rendering weights. A marked slot starts at the floor and gains one
// step per available participant, capped at 1. Display-only: nothing may
// branch on this value.
const (
	densityFloor = 0.3
	densityStep  = 0.2
)

// Aggregate is the derived view of one slot.
type Aggregate struct {
	Count   int      `json:"count"`
	Names   []string `json:"names,omitempty"`
	Density float64  `json:"density"`
}

// Toggle flips the flag at m[slotKey][name], treating an absent entry as
// false, and returns a new map with only that entry changed. The input map
// and its inner maps are never mutated; untouched inner maps are shared
// between input and output.
func Toggle(m AvailabilityMap, slotKey, name string) AvailabilityMap {
	next := make(AvailabilityMap, len(m)+1)
	for k, v := range m {
		next[k] = v
	}

	slot := make(map[string]bool, len(m[slotKey])+1)
	for n, flag := range m[slotKey] {
		slot[n] = flag
	}
	slot[name] = !slot[name]
	next[slotKey] = slot

	return next
}

// IsAvailable reports the flag at m[slotKey][name]. Absence at either level
// is false; callers never see the distinction past this accessor.
func IsAvailable(m AvailabilityMap, slotKey, name string) bool {
	return m[slotKey][name]
}

// AggregateSlot computes the participant count, the sorted set of available
// names, and the density weight for one slot. An absent slot key yields
// count zero and the floor density.
func AggregateSlot(m AvailabilityMap, slotKey string) Aggregate {
	var names []string
	for name, available := range m[slotKey] {
		if available {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return Aggregate{
		Count:   len(names),
		Names:   names,
		Density: DensityFor(len(names)),
	}
}

// DensityFor maps a participant count to a rendering weight in [floor, 1].
// Monotone non-decreasing in count.
func DensityFor(count int) float64 {
	d := densityFloor + float64(count)*densityStep
	if d > 1 {
		return 1
	}
	return d
}
