package offers

import (
	"errors"

	"roundbuy/pkg/models"
)

// State is the client-observed negotiation state of a conversation:
// none -> pending -> accepted | rejected, with the last two terminal.
type State string

const (
	StateNone     State = "none"
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"
)

var (
	ErrNonPositivePrice   = errors.New("offered price must be positive")
	ErrNotPending         = errors.New("offer is not pending")
	ErrTerminalState      = errors.New("offer already has a terminal outcome")
	ErrOwnOffer           = errors.New("an offer cannot be answered by its sender")
	ErrNotReceiver        = errors.New("only the offer receiver may respond")
	ErrCounterUnsupported = errors.New("counter-offer is not supported; create a new offer instead")
)

// StateOf maps a fetched offer (nil when none exists yet) onto the
// client state.
func StateOf(o *models.Offer) State {
	if o == nil {
		return StateNone
	}
	switch o.Status {
	case models.StatusAccepted:
		return StateAccepted
	case models.StatusRejected:
		return StateRejected
	default:
		return StatePending
	}
}

// Terminal reports whether no transition leads out of s.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateRejected
}

// Latest picks the offer that drives the displayed negotiation state.
// Lists arrive most recent first; CreatedTS breaks ties defensively
// for callers that sorted elsewhere.
func Latest(offers []models.Offer) *models.Offer {
	if len(offers) == 0 {
		return nil
	}
	latest := &offers[0]
	for i := range offers {
		if offers[i].CreatedTS > latest.CreatedTS {
			latest = &offers[i]
		}
	}
	return latest
}

// CanRespond checks the guards for the pending -> accepted|rejected
// transition: the offer must still be pending and the viewer must be
// the receiver, never the sender.
func CanRespond(o models.Offer, viewerID string) error {
	if o.Status.Terminal() {
		return ErrTerminalState
	}
	if o.Status != models.StatusPending {
		return ErrNotPending
	}
	if o.SenderID == viewerID {
		return ErrOwnOffer
	}
	if o.ReceiverID != "" && o.ReceiverID != viewerID {
		return ErrNotReceiver
	}
	return nil
}
