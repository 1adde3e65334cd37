package messaging

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"roundbuy/pkg/models"
	"roundbuy/pkg/transport"
)

// Action is the counterparty response submitted on an offer.
// ActionCounter exists in the wire contract but the client defines no
// transition for it; see pkg/offers.
type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionCounter Action = "counter"
)

// Service maps one-to-one onto the messaging endpoints. No business
// logic lives here; every function returns the decoded payload or the
// transport's normalized error.
type Service struct {
	api *transport.Client
}

func NewService(api *transport.Client) *Service {
	return &Service{api: api}
}

type ConversationPage struct {
	Conversations []models.Conversation `json:"conversations"`
	Pagination    models.Pagination     `json:"pagination"`
}

type MessagePage struct {
	Messages   []models.Message  `json:"messages"`
	Pagination models.Pagination `json:"pagination"`
}

// SendResult is returned from SendMessage; ConversationID identifies
// the (possibly just created) conversation.
type SendResult struct {
	Message        models.Message `json:"message"`
	ConversationID string         `json:"conversation_id"`
}

func pageQuery(page, limit, defLimit int) url.Values {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defLimit
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// Conversations lists the authenticated user's conversations.
func (s *Service) Conversations(ctx context.Context, page, limit int) (*ConversationPage, error) {
	var out ConversationPage
	if err := s.api.Get(ctx, "/messaging/conversations", pageQuery(page, limit, 20), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConversationMessages lists messages in a conversation; the server
// marks them read as a side effect.
func (s *Service) ConversationMessages(ctx context.Context, conversationID string, page, limit int) (*MessagePage, error) {
	var out MessagePage
	path := fmt.Sprintf("/messaging/conversations/%s/messages", url.PathEscape(conversationID))
	if err := s.api.Get(ctx, path, pageQuery(page, limit, 50), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage sends a message about an advertisement; the receiver is
// resolved server-side to the seller, and a conversation is created
// implicitly if none exists yet for this buyer and advertisement.
func (s *Service) SendMessage(ctx context.Context, advertisementID, text string) (*SendResult, error) {
	var out SendResult
	err := s.api.Post(ctx, "/messaging/messages", map[string]string{
		"advertisement_id": advertisementID,
		"message":          text,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MakeOffer creates a pending offer in an existing conversation.
func (s *Service) MakeOffer(ctx context.Context, conversationID string, price models.Price, message string) (*models.Offer, error) {
	var out struct {
		Offer models.Offer `json:"offer"`
	}
	err := s.api.Post(ctx, "/messaging/offers", map[string]any{
		"conversation_id": conversationID,
		"offered_price":   price,
		"message":         message,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Offer, nil
}

// RespondToOffer submits the counterparty response. counterPrice is
// only meaningful for ActionCounter.
func (s *Service) RespondToOffer(ctx context.Context, offerID string, action Action, counterPrice *models.Price) (*models.Offer, error) {
	body := map[string]any{"action": string(action)}
	if counterPrice != nil {
		body["counter_price"] = *counterPrice
	}
	var out struct {
		Offer models.Offer `json:"offer"`
	}
	path := fmt.Sprintf("/messaging/offers/%s", url.PathEscape(offerID))
	if err := s.api.Put(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out.Offer, nil
}

// ConversationOffers lists a conversation's offers, most recent first.
func (s *Service) ConversationOffers(ctx context.Context, conversationID string) ([]models.Offer, error) {
	var out struct {
		Offers []models.Offer `json:"offers"`
	}
	path := fmt.Sprintf("/messaging/conversations/%s/offers", url.PathEscape(conversationID))
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Offers, nil
}

// MarkConversationRead forces the read side effect without fetching a
// full page, mirroring the mobile client's minimal fetch.
func (s *Service) MarkConversationRead(ctx context.Context, conversationID string) error {
	_, err := s.ConversationMessages(ctx, conversationID, 1, 1)
	return err
}
