package refset

import "github.com/google/uuid"

// Expr is a set expression evaluated by the store against the current value
// of a reference-set field. Adapters translate it into their own atomic
// update primitive; Eval is the reference semantics.
type Expr interface {
	Eval(current []uuid.UUID) []uuid.UUID
}

// Field is the stored value of the field being updated.
type Field struct{}

func (Field) Eval(current []uuid.UUID) []uuid.UUID {
	return Dedup(current)
}

// Literal replaces the field with a fixed set.
type Literal []uuid.UUID

func (l Literal) Eval([]uuid.UUID) []uuid.UUID {
	return Dedup(l)
}

// Difference removes ids from the result of From.
type Difference struct {
	From   Expr
	Remove []uuid.UUID
}

func (d Difference) Eval(current []uuid.UUID) []uuid.UUID {
	base := d.From.Eval(current)
	if len(d.Remove) == 0 {
		return base
	}
	drop := toSet(d.Remove)
	out := make([]uuid.UUID, 0, len(base))
	for _, id := range base {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Union appends ids missing from the result of Base.
type Union struct {
	Base Expr
	Add  []uuid.UUID
}

func (u Union) Eval(current []uuid.UUID) []uuid.UUID {
	base := u.Base.Eval(current)
	return Dedup(append(base, u.Add...))
}

// Replace substitutes New for Old in the result of From, keeping its
// position.
type Replace struct {
	From Expr
	Old  uuid.UUID
	New  uuid.UUID
}

func (r Replace) Eval(current []uuid.UUID) []uuid.UUID {
	base := r.From.Eval(current)
	out := make([]uuid.UUID, len(base))
	for i, id := range base {
		if id == r.Old {
			id = r.New
		}
		out[i] = id
	}
	return Dedup(out)
}
