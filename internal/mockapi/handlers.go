package mockapi

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"roundbuy/pkg/models"
)

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Language string `json:"language"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Email == "" || in.Password == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[in.Email]; exists {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "email already registered")
		return
	}
	if in.Language == "" {
		in.Language = "en"
	}
	u := models.User{ID: newID(), FullName: in.FullName, Email: in.Email, Language: in.Language}
	rec := &userRecord{user: u, password: in.Password}
	s.usersByEmail[in.Email] = rec
	s.usersByID[u.ID] = rec
	writeOK(w, map[string]any{"user": u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.usersByEmail[in.Email]
	if !ok || rec.password != in.Password {
		writeErr(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	access, refresh := s.issueTokens(rec.user.ID)
	writeOK(w, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          rec.user,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.refresh[in.RefreshToken]
	if !ok {
		writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid refresh token")
		return
	}
	// rotate: the presented refresh token is consumed
	delete(s.refresh, in.RefreshToken)
	access, refresh := s.issueTokens(userID)
	writeOK(w, map[string]any{"access_token": access, "refresh_token": refresh})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.usersByID[userID]
	if !ok {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	writeOK(w, map[string]any{"user": rec.user})
}

// --- messaging ---

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, userID string) {
	page, limit := pageParams(r, 20)
	s.mu.Lock()
	var list []models.Conversation
	for _, c := range s.convs {
		if c.BuyerID == userID || c.SellerID == userID {
			list = append(list, *c)
		}
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].LastMessageTS > list[j].LastMessageTS })
	items, pg := paginate(list, page, limit)
	writeOK(w, map[string]any{"conversations": items, "pagination": pg})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, userID string) {
	var in struct {
		AdvertisementID string `json:"advertisement_id"`
		Message         string `json:"message"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Message == "" {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "message is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, ok := s.ads[in.AdvertisementID]
	if !ok {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "advertisement not found")
		return
	}
	if ad.SellerID == userID {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "cannot message your own advertisement")
		return
	}

	// one conversation per (buyer, advertisement), created on first send
	key := userID + "|" + ad.ID
	convID, exists := s.convByKey[key]
	if !exists {
		convID = newID()
		s.convByKey[key] = convID
		s.convs[convID] = &models.Conversation{
			ID:                 convID,
			AdvertisementID:    ad.ID,
			AdvertisementTitle: ad.Title,
			AdvertisementPrice: ad.Price,
			BuyerID:            userID,
			SellerID:           ad.SellerID,
			IsRead:             true,
		}
	}
	conv := s.convs[convID]
	msg := s.appendMessage(conv, userID, in.Message)
	writeOK(w, map[string]any{"message": msg, "conversation_id": convID})
}

// appendMessage records a message and updates the conversation
// preview. Caller holds s.mu.
func (s *Server) appendMessage(conv *models.Conversation, senderID, body string) models.Message {
	receiver := conv.SellerID
	if senderID == conv.SellerID {
		receiver = conv.BuyerID
	}
	msg := models.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiver,
		Body:           body,
		CreatedTS:      nowTS(),
	}
	s.msgs[conv.ID] = append(s.msgs[conv.ID], msg)
	conv.LastMessage = body
	conv.LastMessageSenderID = senderID
	conv.LastMessageTS = msg.CreatedTS
	conv.IsRead = false
	return msg
}

func (s *Server) conversationFor(w http.ResponseWriter, r *http.Request, userID string) *models.Conversation {
	id := mux.Vars(r)["id"]
	conv, ok := s.convs[id]
	if !ok {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "conversation not found")
		return nil
	}
	if conv.BuyerID != userID && conv.SellerID != userID {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "conversation not found")
		return nil
	}
	return conv
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request, userID string) {
	page, limit := pageParams(r, 50)
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.conversationFor(w, r, userID)
	if conv == nil {
		return
	}

	// fetching marks the viewer's incoming messages read
	msgs := s.msgs[conv.ID]
	for i := range msgs {
		if msgs[i].ReceiverID == userID {
			msgs[i].Read = true
		}
	}
	if conv.LastMessageSenderID != userID {
		conv.IsRead = true
	}

	items, pg := paginate(msgs, page, limit)
	writeOK(w, map[string]any{"messages": items, "pagination": pg})
}

// --- offers ---

func (s *Server) handleMakeOffer(w http.ResponseWriter, r *http.Request, userID string) {
	var in struct {
		ConversationID string       `json:"conversation_id"`
		OfferedPrice   models.Price `json:"offered_price"`
		Message        string       `json:"message"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if !in.OfferedPrice.Positive() {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "offered_price must be positive")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[in.ConversationID]
	if !ok || (conv.BuyerID != userID && conv.SellerID != userID) {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "conversation not found")
		return
	}
	receiver := conv.SellerID
	if userID == conv.SellerID {
		receiver = conv.BuyerID
	}
	ad := s.ads[conv.AdvertisementID]
	offer := &models.Offer{
		ID:              newID(),
		ConversationID:  conv.ID,
		AdvertisementID: conv.AdvertisementID,
		SenderID:        userID,
		ReceiverID:      receiver,
		OfferedPrice:    in.OfferedPrice,
		Currency:        ad.Currency,
		Status:          models.StatusPending,
		Message:         in.Message,
		CreatedTS:       nowTS(),
	}
	s.offers[offer.ID] = offer
	s.convOffers[conv.ID] = append([]string{offer.ID}, s.convOffers[conv.ID]...)
	if in.Message != "" {
		s.appendMessage(conv, userID, in.Message)
	}
	writeOK(w, map[string]any{"offer": offer})
}

// resolveOffer applies the single allowed transition for an offer.
func (s *Server) resolveOffer(w http.ResponseWriter, offerID, userID, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[offerID]
	if !ok {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "offer not found")
		return
	}
	if offer.ReceiverID != userID {
		writeErr(w, http.StatusForbidden, "FORBIDDEN", "only the offer receiver may respond")
		return
	}
	if offer.Status != models.StatusPending {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "offer already resolved")
		return
	}
	switch action {
	case "accept":
		offer.Status = models.StatusAccepted
		offer.PickupAvailable = true
	case "reject":
		offer.Status = models.StatusRejected
	case "counter":
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "counter-offer is not supported")
		return
	default:
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown action")
		return
	}
	writeOK(w, map[string]any{"offer": offer})
}

func (s *Server) handleRespondOffer(w http.ResponseWriter, r *http.Request, userID string) {
	var in struct {
		Action       string        `json:"action"`
		CounterPrice *models.Price `json:"counter_price"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	s.resolveOffer(w, mux.Vars(r)["id"], userID, in.Action)
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request, userID string) {
	s.resolveOffer(w, mux.Vars(r)["id"], userID, "accept")
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request, userID string) {
	s.resolveOffer(w, mux.Vars(r)["id"], userID, "reject")
}

func (s *Server) handleConversationOffers(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := s.conversationFor(w, r, userID)
	if conv == nil {
		return
	}
	list := make([]models.Offer, 0, len(s.convOffers[conv.ID]))
	for _, id := range s.convOffers[conv.ID] {
		list = append(list, *s.offers[id])
	}
	writeOK(w, map[string]any{"offers": list})
}

func (s *Server) handleUserOffers(w http.ResponseWriter, r *http.Request, userID string) {
	role := r.URL.Query().Get("type")
	status := r.URL.Query().Get("status")
	page, limit := pageParams(r, 20)

	s.mu.Lock()
	var list []models.Offer
	for _, o := range s.offers {
		mine := false
		switch role {
		case "buyer":
			mine = o.SenderID == userID
		case "seller":
			mine = o.ReceiverID == userID
		default:
			mine = o.SenderID == userID || o.ReceiverID == userID
		}
		if !mine {
			continue
		}
		if status != "" && string(o.Status) != status {
			continue
		}
		list = append(list, *o)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedTS > list[j].CreatedTS })
	items, pg := paginate(list, page, limit)
	writeOK(w, map[string]any{"offers": items, "pagination": pg})
}

func (s *Server) handleAdvertisementOffers(w http.ResponseWriter, r *http.Request, userID string) {
	adID := mux.Vars(r)["id"]
	s.mu.Lock()
	var list []models.Offer
	for _, o := range s.offers {
		if o.AdvertisementID == adID && (o.SenderID == userID || o.ReceiverID == userID) {
			list = append(list, *o)
		}
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedTS > list[j].CreatedTS })
	writeOK(w, map[string]any{"offers": list})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats struct {
		Pending  int `json:"pending"`
		Accepted int `json:"accepted"`
		Rejected int `json:"rejected"`
		Made     int `json:"made"`
		Received int `json:"received"`
	}
	for _, o := range s.offers {
		if o.SenderID == userID {
			stats.Made++
		}
		if o.ReceiverID == userID {
			stats.Received++
		}
		if o.SenderID != userID && o.ReceiverID != userID {
			continue
		}
		switch o.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusAccepted:
			stats.Accepted++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	writeOK(w, stats)
}
