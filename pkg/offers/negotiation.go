package offers

import (
	"context"

	"roundbuy/pkg/logger"
	"roundbuy/pkg/messaging"
	"roundbuy/pkg/models"
)

// defaultOpener is the initiating message used when an offer is made
// before any conversation exists and the caller supplied no text.
const defaultOpener = "Hi, I would like to make an offer."

// Negotiator drives the offer workflow for one viewer. It owns no
// list state (see Board); it sequences the service calls and enforces
// the transition guards client-side before hitting the network.
type Negotiator struct {
	msg      *messaging.Service
	offers   *Service
	viewerID string
}

func NewNegotiator(msg *messaging.Service, offers *Service, viewerID string) *Negotiator {
	return &Negotiator{msg: msg, offers: offers, viewerID: viewerID}
}

// MakeOfferInput describes a new offer. ConversationID may be empty,
// in which case AdvertisementID is required and the conversation is
// created by sending the initiating message first.
type MakeOfferInput struct {
	ConversationID  string
	AdvertisementID string
	Price           models.Price
	Message         string
}

// MakeOffer performs the none -> pending transition. When no
// conversation exists yet it first sends an initiating message and
// uses the returned conversation id; if that send fails the whole
// action fails and no client-side state is retained.
func (n *Negotiator) MakeOffer(ctx context.Context, in MakeOfferInput) (*models.Offer, string, error) {
	if !in.Price.Positive() {
		return nil, "", ErrNonPositivePrice
	}

	convID := in.ConversationID
	if convID == "" {
		text := in.Message
		if text == "" {
			text = defaultOpener
		}
		sent, err := n.msg.SendMessage(ctx, in.AdvertisementID, text)
		if err != nil {
			return nil, "", err
		}
		convID = sent.ConversationID
		logger.Debug("conversation_opened", "conversation", convID, "advertisement", in.AdvertisementID)
	}

	offer, err := n.msg.MakeOffer(ctx, convID, in.Price, in.Message)
	if err != nil {
		return nil, "", err
	}
	logger.Info("offer_made", "offer", offer.ID, "conversation", convID)
	return offer, convID, nil
}

// Accept performs pending -> accepted. Guards run client-side first
// so a stale or own offer fails fast without a request.
func (n *Negotiator) Accept(ctx context.Context, o models.Offer) (*models.Offer, error) {
	if err := CanRespond(o, n.viewerID); err != nil {
		return nil, err
	}
	return n.offers.Accept(ctx, o.ID)
}

// Decline performs pending -> rejected under the same guards.
func (n *Negotiator) Decline(ctx context.Context, o models.Offer) (*models.Offer, error) {
	if err := CanRespond(o, n.viewerID); err != nil {
		return nil, err
	}
	return n.offers.Decline(ctx, o.ID)
}

// Counter is deliberately unimplemented: the wire contract names the
// action but no screen ever submitted a counter price, so no
// transition is defined. Renegotiate with a fresh MakeOffer.
func (n *Negotiator) Counter(ctx context.Context, o models.Offer, price models.Price) (*models.Offer, error) {
	return nil, ErrCounterUnsupported
}

// NegotiationState fetches a conversation's offers and reduces them
// to the displayed state plus the driving offer.
func (n *Negotiator) NegotiationState(ctx context.Context, conversationID string) (State, *models.Offer, error) {
	list, err := n.msg.ConversationOffers(ctx, conversationID)
	if err != nil {
		return StateNone, nil, err
	}
	latest := Latest(list)
	return StateOf(latest), latest, nil
}
