package offers

import (
	"errors"
	"sync"

	"roundbuy/pkg/models"
)

// Phase marks whether a row has a mutation outstanding. In-flight rows
// keep showing the prior server-confirmed offer, never an optimistic
// result.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseInFlight Phase = "in_flight"
)

var (
	ErrUnknownOffer = errors.New("offer not present on board")
	ErrInFlight     = errors.New("a response for this offer is already in flight")
)

// Row is one offer plus its mutation phase.
type Row struct {
	Offer models.Offer
	Phase Phase
}

// Board is the reducer-style list state for offer screens. Mutations
// follow Begin -> (Resolve | Fail): Begin marks the row in flight and
// doubles as the single-submission guard, Resolve applies the
// server-confirmed result, Fail reverts the phase leaving the offer
// untouched. Full refetches go through Replace (last fetch wins).
type Board struct {
	mu    sync.Mutex
	rows  map[string]*Row
	order []string
}

func NewBoard() *Board {
	return &Board{rows: make(map[string]*Row)}
}

// Replace swaps the whole list for a fresh server fetch, preserving
// in-flight phases for offers still present.
func (b *Board) Replace(offers []models.Offer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.rows
	b.rows = make(map[string]*Row, len(offers))
	b.order = b.order[:0]
	for _, o := range offers {
		phase := PhaseIdle
		if r, ok := prev[o.ID]; ok && r.Phase == PhaseInFlight && !o.Status.Terminal() {
			phase = PhaseInFlight
		}
		b.rows[o.ID] = &Row{Offer: o, Phase: phase}
		b.order = append(b.order, o.ID)
	}
}

// Begin marks an offer as having a mutation outstanding. It fails on
// unknown ids, terminal offers, and double submission.
func (b *Board) Begin(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[id]
	if !ok {
		return ErrUnknownOffer
	}
	if r.Offer.Status.Terminal() {
		return ErrTerminalState
	}
	if r.Phase == PhaseInFlight {
		return ErrInFlight
	}
	r.Phase = PhaseInFlight
	return nil
}

// Resolve applies the server-confirmed offer after a successful
// mutation and returns the row to idle.
func (b *Board) Resolve(id string, updated models.Offer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[id]
	if !ok {
		return
	}
	r.Offer = updated
	r.Phase = PhaseIdle
}

// Fail aborts a mutation: the phase resets and the prior offer state
// stays untouched.
func (b *Board) Fail(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.rows[id]; ok {
		r.Phase = PhaseIdle
	}
}

// Get returns a copy of one row.
func (b *Board) Get(id string) (Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[id]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// InFlight reports whether a mutation is outstanding for id.
func (b *Board) InFlight(id string) bool {
	r, ok := b.Get(id)
	return ok && r.Phase == PhaseInFlight
}

// Snapshot returns rows in list order.
func (b *Board) Snapshot() []Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Row, 0, len(b.order))
	for _, id := range b.order {
		if r, ok := b.rows[id]; ok {
			out = append(out, *r)
		}
	}
	return out
}
