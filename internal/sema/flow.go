package sema

import "loom/internal/elements"

// flowState carries flow-sensitive type promotions for locals. The zero map
// means no promotions; every mutation goes through the methods so branch
// handling stays in one place.
type flowState struct {
	promoted map[*localVar]*elements.Type
}

func newFlowState() *flowState {
	return &flowState{promoted: map[*localVar]*elements.Type{}}
}

// typeOf returns the promoted type when one is active, the declared type
// otherwise.
func (fl *flowState) typeOf(lv *localVar) *elements.Type {
	if t, ok := fl.promoted[lv]; ok {
		return t
	}
	return lv.typ
}

// promote narrows the local to t for the current branch.
func (fl *flowState) promote(lv *localVar, t *elements.Type) {
	if t == nil || t.Invalid() {
		return
	}
	fl.promoted[lv] = t
}

// invalidate drops the promotion after an assignment to the local.
func (fl *flowState) invalidate(lv *localVar) {
	delete(fl.promoted, lv)
}

// fork copies the state for a branch.
func (fl *flowState) fork() *flowState {
	next := newFlowState()
	for lv, t := range fl.promoted {
		next.promoted[lv] = t
	}
	return next
}

// merge joins two branch exits. A promotion survives only when both sides
// carry one; differing types collapse to their least upper bound.
func merge(a, b *flowState) *flowState {
	out := newFlowState()
	for lv, ta := range a.promoted {
		tb, ok := b.promoted[lv]
		if !ok {
			continue
		}
		joined := elements.LeastUpperBound(ta, tb)
		if joined != nil && !joined.Invalid() {
			out.promoted[lv] = joined
		}
	}
	return out
}
