package resource

import (
	"github.com/c360/semmodel/store"
)

// TripleDiff is the minimal set of store changes a save produces.
type TripleDiff struct {
	Add    []store.Triple
	Remove []store.Triple
}

// Empty reports whether applying the diff would change nothing.
func (d TripleDiff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// diffTriples computes the difference between two triple sets keyed by
// triple identity. A list element that moved position shows up as one
// remove and one add, since the order index participates in the key.
func diffTriples(before, after []store.Triple) TripleDiff {
	beforeKeys := make(map[string]store.Triple, len(before))
	for _, t := range before {
		beforeKeys[t.Key()] = t
	}
	afterKeys := make(map[string]bool, len(after))

	var d TripleDiff
	for _, t := range after {
		key := t.Key()
		afterKeys[key] = true
		if _, ok := beforeKeys[key]; !ok {
			d.Add = append(d.Add, t)
		}
	}
	for _, t := range before {
		if !afterKeys[t.Key()] {
			d.Remove = append(d.Remove, t)
		}
	}
	return d
}
