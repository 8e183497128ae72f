package refset

import "github.com/google/uuid"

// Delta describes an add/remove change to a reference set. Ids present in
// both lists cancel out.
type Delta struct {
	Add    []uuid.UUID
	Remove []uuid.UUID
}

// NewDelta normalizes add and remove into a Delta.
func NewDelta(add, remove []uuid.UUID) Delta {
	addSet := toSet(add)
	removeSet := toSet(remove)

	var d Delta
	for _, id := range Dedup(add) {
		if _, both := removeSet[id]; !both {
			d.Add = append(d.Add, id)
		}
	}
	for _, id := range Dedup(remove) {
		if _, both := addSet[id]; !both {
			d.Remove = append(d.Remove, id)
		}
	}
	return d
}

// Empty reports whether applying the delta is a no-op.
func (d Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// Apply computes (current − remove) ∪ add, keeping the surviving current
// order and appending new ids.
func (d Delta) Apply(current []uuid.UUID) []uuid.UUID {
	return d.Expr().Eval(current)
}

// Expr returns the delta as an expression over the stored field so the store
// can evaluate it atomically against its own current value.
func (d Delta) Expr() Expr {
	return Union{
		Base: Difference{From: Field{}, Remove: d.Remove},
		Add:  d.Add,
	}
}

// Dedup removes repeated ids, keeping the first occurrence.
func Dedup(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
