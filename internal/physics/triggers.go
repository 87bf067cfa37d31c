package physics

import (
	"slices"

	"rigid3d/internal/engine"

	"go.uber.org/zap"
)

// ContactEvent is published for collision and trigger transitions.
// Manifold is nil on exit events.
type ContactEvent struct {
	A, B     engine.EntityID
	Manifold *ContactManifold
}

// PairTracker diffs the set of touching pairs between consecutive updates.
type PairTracker struct {
	active map[CollisionPair]struct{}
}

func NewPairTracker() *PairTracker {
	return &PairTracker{active: make(map[CollisionPair]struct{})}
}

// Update replaces the active set with now. entered holds pairs new this update,
// stayed those present in both, exited those that disappeared. All three are sorted.
func (t *PairTracker) Update(now []CollisionPair) (entered, stayed, exited []CollisionPair) {
	next := make(map[CollisionPair]struct{}, len(now))
	for _, p := range now {
		p = MakePair(p.A, p.B)
		if _, dup := next[p]; dup {
			continue
		}
		next[p] = struct{}{}
		if _, ok := t.active[p]; ok {
			stayed = append(stayed, p)
		} else {
			entered = append(entered, p)
		}
	}
	for p := range t.active {
		if _, ok := next[p]; !ok {
			exited = append(exited, p)
		}
	}
	t.active = next

	slices.SortFunc(entered, comparePairs)
	slices.SortFunc(stayed, comparePairs)
	slices.SortFunc(exited, comparePairs)
	return entered, stayed, exited
}

// Active reports whether the pair was present at the last update.
func (t *PairTracker) Active(a, b engine.EntityID) bool {
	_, ok := t.active[MakePair(a, b)]
	return ok
}

func (t *PairTracker) Len() int {
	return len(t.active)
}

func (t *PairTracker) Reset() {
	clear(t.active)
}

type eventKind int

const (
	collisionEnter eventKind = iota
	collisionStay
	collisionExit
	triggerEnter
	triggerStay
	triggerExit
)

var eventKindNames = [...]string{"collision_enter", "collision_stay", "collision_exit", "trigger_enter", "trigger_stay", "trigger_exit"}

func (k eventKind) String() string {
	return eventKindNames[k]
}

// publish fires one transition for a pair: the world event first, then any
// handler components on both entities. Panics are logged and swallowed per listener.
func (w *World) publish(kind eventKind, pair CollisionPair, m *ContactManifold) {
	ev := ContactEvent{A: pair.A, B: pair.B, Manifold: m}
	onPanic := func(i int, r any) {
		w.logger.Error("contact listener panicked",
			zap.Stringer("event", kind),
			zap.Uint64("entity_a", uint64(pair.A)),
			zap.Uint64("entity_b", uint64(pair.B)),
			zap.Int("listener", i),
			zap.Any("panic", r))
	}

	switch kind {
	case collisionEnter:
		w.OnCollisionEnter.InvokeEach(ev, onPanic)
	case collisionStay:
		w.OnCollisionStay.InvokeEach(ev, onPanic)
	case collisionExit:
		w.OnCollisionExit.InvokeEach(ev, onPanic)
	case triggerEnter:
		w.OnTriggerEnter.InvokeEach(ev, onPanic)
	case triggerStay:
		w.OnTriggerStay.InvokeEach(ev, onPanic)
	case triggerExit:
		w.OnTriggerExit.InvokeEach(ev, onPanic)
	}

	if kind == collisionStay || kind == triggerStay {
		return
	}
	w.notifyHandlers(kind, pair.A, pair.B, onPanic)
	w.notifyHandlers(kind, pair.B, pair.A, onPanic)
}

// notifyHandlers calls the matching callback on every handler component of self.
func (w *World) notifyHandlers(kind eventKind, self, other engine.EntityID, onPanic func(int, any)) {
	e := w.reg.Get(self)
	if e == nil {
		return
	}
	for i, comp := range e.Components() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					onPanic(i, r)
				}
			}()
			switch kind {
			case collisionEnter:
				if h, ok := comp.(engine.CollisionHandler); ok {
					h.OnCollisionEnter(other)
				}
			case collisionExit:
				if h, ok := comp.(engine.CollisionHandler); ok {
					h.OnCollisionExit(other)
				}
			case triggerEnter:
				if h, ok := comp.(engine.TriggerHandler); ok {
					h.OnTriggerEnter(other)
				}
			case triggerExit:
				if h, ok := comp.(engine.TriggerHandler); ok {
					h.OnTriggerExit(other)
				}
			}
		}()
	}
}
