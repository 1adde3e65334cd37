package models

// OfferStatus is the server-reported lifecycle status of an offer.
// "accepted" and "rejected" are terminal; renegotiation requires a
// fresh offer.
type OfferStatus string

const (
	StatusPending  OfferStatus = "pending"
	StatusAccepted OfferStatus = "accepted"
	StatusRejected OfferStatus = "rejected"
)

// Terminal reports whether no further transition is defined for s.
func (s OfferStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

type User struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Language string `json:"language,omitempty"`
}

// Advertisement is the denormalized read-only snapshot embedded in
// conversations and offers. The negotiation workflow displays it but
// never mutates it.
type Advertisement struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Price      Price    `json:"price"`
	Currency   string   `json:"currency,omitempty"`
	Images     []string `json:"images,omitempty"`
	SellerID   string   `json:"seller_id"`
	SellerName string   `json:"seller_name,omitempty"`
}

// Conversation is a buyer-seller thread scoped to one advertisement.
// Created implicitly on first message send; never explicitly destroyed.
type Conversation struct {
	ID                  string   `json:"id"`
	AdvertisementID     string   `json:"advertisement_id"`
	AdvertisementTitle  string   `json:"advertisement_title,omitempty"`
	AdvertisementPrice  Price    `json:"advertisement_price,omitempty"`
	AdvertisementImages []string `json:"advertisement_images,omitempty"`
	BuyerID             string   `json:"buyer_id"`
	SellerID            string   `json:"seller_id"`
	LastMessage         string   `json:"last_message,omitempty"`
	LastMessageSenderID string   `json:"last_message_sender_id,omitempty"`
	// LastMessageTS is ns since epoch.
	LastMessageTS int64 `json:"last_message_ts,omitempty"`
	// IsRead reports whether the last message has been read by its
	// receiver. Viewer-relative unread state is computed client-side.
	IsRead bool `json:"is_read"`
}

// Message belongs to exactly one conversation and is immutable once
// created.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Body           string `json:"message"`
	Read           bool   `json:"read"`
	CreatedTS      int64  `json:"created_ts"`
}

// Offer is a priced proposal within a conversation. Status moves
// pending -> accepted|rejected exactly once, driven by the receiver.
type Offer struct {
	ID              string      `json:"id"`
	ConversationID  string      `json:"conversation_id"`
	AdvertisementID string      `json:"advertisement_id"`
	SenderID        string      `json:"sender_id"`
	ReceiverID      string      `json:"receiver_id"`
	OfferedPrice    Price       `json:"offered_price"`
	Currency        string      `json:"currency,omitempty"`
	Status          OfferStatus `json:"status"`
	Message         string      `json:"message,omitempty"`
	CreatedTS       int64       `json:"created_ts"`
	// PickupAvailable marks an accepted offer as eligible for the
	// schedule-pickup follow-up. Presentational only.
	PickupAvailable bool `json:"pickup_available,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages,omitempty"`
}
