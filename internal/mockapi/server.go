// Package mockapi is an in-memory RoundBuy API used by package tests,
// the CLI bench target and cmd/mockapi. It implements the server
// contracts the client relies on: idempotent conversation creation per
// buyer and advertisement, terminal offer statuses, offers listed most
// recent first, and bearer auth with refresh rotation.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"roundbuy/pkg/models"
	"roundbuy/pkg/telemetry"
)

type userRecord struct {
	user     models.User
	password string
}

type accessRecord struct {
	userID  string
	expires time.Time
}

type Server struct {
	mu sync.Mutex

	usersByEmail map[string]*userRecord
	usersByID    map[string]*userRecord
	access       map[string]accessRecord
	refresh      map[string]string
	accessTTL    time.Duration

	ads        map[string]models.Advertisement
	convs      map[string]*models.Conversation
	convByKey  map[string]string // buyerID|advertisementID -> conversation id
	msgs       map[string][]models.Message
	offers     map[string]*models.Offer
	convOffers map[string][]string // newest first

	gatedPrefixes []string
}

func New() *Server {
	return &Server{
		usersByEmail: make(map[string]*userRecord),
		usersByID:    make(map[string]*userRecord),
		access:       make(map[string]accessRecord),
		refresh:      make(map[string]string),
		accessTTL:    time.Hour,
		ads:          make(map[string]models.Advertisement),
		convs:        make(map[string]*models.Conversation),
		convByKey:    make(map[string]string),
		msgs:         make(map[string][]models.Message),
		offers:       make(map[string]*models.Offer),
		convOffers:   make(map[string][]string),
	}
}

func newID() string { return ulid.Make().String() }

func nowTS() int64 { return time.Now().UTC().UnixNano() }

// Router mounts every endpoint under /api/v1/mobile-app plus /metrics.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1/mobile-app").Subrouter()

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/user/profile", s.auth(s.handleProfile)).Methods(http.MethodGet)

	api.HandleFunc("/messaging/conversations", s.auth(s.handleConversations)).Methods(http.MethodGet)
	api.HandleFunc("/messaging/conversations/{id}/messages", s.auth(s.handleConversationMessages)).Methods(http.MethodGet)
	api.HandleFunc("/messaging/conversations/{id}/offers", s.auth(s.handleConversationOffers)).Methods(http.MethodGet)
	api.HandleFunc("/messaging/messages", s.auth(s.handleSendMessage)).Methods(http.MethodPost)
	api.HandleFunc("/messaging/offers", s.auth(s.handleMakeOffer)).Methods(http.MethodPost)
	api.HandleFunc("/messaging/offers/{id}", s.auth(s.handleRespondOffer)).Methods(http.MethodPut)

	api.HandleFunc("/offers", s.auth(s.handleUserOffers)).Methods(http.MethodGet)
	api.HandleFunc("/offers/stats", s.auth(s.handleStats)).Methods(http.MethodGet)
	api.HandleFunc("/offers/advertisement/{id}", s.auth(s.handleAdvertisementOffers)).Methods(http.MethodGet)
	api.HandleFunc("/offers/{id}/accept", s.auth(s.handleAcceptOffer)).Methods(http.MethodPost)
	api.HandleFunc("/offers/{id}/reject", s.auth(s.handleRejectOffer)).Methods(http.MethodPost)

	r.Handle("/metrics", telemetry.Handler())
	return r
}

// --- test seams ---

// SeedUser registers a user directly.
func (s *Server) SeedUser(fullName, email, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: newID(), FullName: fullName, Email: email, Language: "en"}
	rec := &userRecord{user: u, password: password}
	s.usersByEmail[email] = rec
	s.usersByID[u.ID] = rec
	return u
}

// SeedAdvertisement publishes an advertisement for a seller.
func (s *Server) SeedAdvertisement(sellerID, title, currency string, price models.Price) models.Advertisement {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := ""
	if rec, ok := s.usersByID[sellerID]; ok {
		name = rec.user.FullName
	}
	ad := models.Advertisement{
		ID:         newID(),
		Title:      title,
		Price:      price,
		Currency:   currency,
		SellerID:   sellerID,
		SellerName: name,
	}
	s.ads[ad.ID] = ad
	return ad
}

// SetAccessTTL controls how long issued access tokens live.
func (s *Server) SetAccessTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = d
}

// ExpireAccessTokens invalidates every outstanding access token while
// leaving refresh tokens valid, to exercise the silent-refresh flow.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, rec := range s.access {
		rec.expires = time.Now().Add(-time.Minute)
		s.access[tok] = rec
	}
}

// RequireSubscription gates a path prefix behind a subscription,
// returning 403 SUBSCRIPTION_REQUIRED.
func (s *Server) RequireSubscription(pathPrefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gatedPrefixes = append(s.gatedPrefixes, pathPrefix)
}

// --- response helpers ---

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

func writeOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, ErrorCode: code, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return false
	}
	return true
}

// --- auth middleware ---

func (s *Server) auth(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tok == "" {
			writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		s.mu.Lock()
		rec, ok := s.access[tok]
		gated := false
		if ok {
			for _, p := range s.gatedPrefixes {
				if strings.HasPrefix(strings.TrimPrefix(r.URL.Path, "/api/v1/mobile-app"), p) {
					gated = true
					break
				}
			}
		}
		s.mu.Unlock()
		if !ok || time.Now().After(rec.expires) {
			writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "token expired or invalid")
			return
		}
		if gated {
			writeErr(w, http.StatusForbidden, "SUBSCRIPTION_REQUIRED", "An active subscription is required")
			return
		}
		next(w, r, rec.userID)
	}
}

func (s *Server) issueTokens(userID string) (access, refresh string) {
	access = "at_" + newID()
	refresh = "rt_" + newID()
	s.access[access] = accessRecord{userID: userID, expires: time.Now().Add(s.accessTTL)}
	s.refresh[refresh] = userID
	return access, refresh
}

// --- pagination ---

func pageParams(r *http.Request, defLimit int) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defLimit
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pages := (total + limit - 1) / limit
	return items[start:end], models.Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
