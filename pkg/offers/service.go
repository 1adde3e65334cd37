package offers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"roundbuy/pkg/models"
	"roundbuy/pkg/transport"
)

// Role filters offer lists by the viewer's side of the deal.
type Role string

const (
	RoleAll    Role = "all"
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Service maps one-to-one onto the offers endpoints.
type Service struct {
	api *transport.Client
}

func NewService(api *transport.Client) *Service {
	return &Service{api: api}
}

type ListParams struct {
	Role   Role
	Status models.OfferStatus
	Page   int
	Limit  int
}

type OfferPage struct {
	Offers     []models.Offer    `json:"offers"`
	Pagination models.Pagination `json:"pagination"`
}

type Stats struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Made     int `json:"made"`
	Received int `json:"received"`
}

// UserOffers lists the viewer's offers, filtered server-side.
func (s *Service) UserOffers(ctx context.Context, p ListParams) (*OfferPage, error) {
	if p.Role == "" {
		p.Role = RoleAll
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	q := url.Values{}
	q.Set("type", string(p.Role))
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))

	var out OfferPage
	if err := s.api.Get(ctx, "/offers", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Made lists offers the viewer sent as buyer.
func (s *Service) Made(ctx context.Context, p ListParams) (*OfferPage, error) {
	p.Role = RoleBuyer
	return s.UserOffers(ctx, p)
}

// Received lists offers the viewer received as seller.
func (s *Service) Received(ctx context.Context, p ListParams) (*OfferPage, error) {
	p.Role = RoleSeller
	return s.UserOffers(ctx, p)
}

// Accepted lists accepted offers.
func (s *Service) Accepted(ctx context.Context, p ListParams) (*OfferPage, error) {
	p.Status = models.StatusAccepted
	return s.UserOffers(ctx, p)
}

// Declined lists rejected offers.
func (s *Service) Declined(ctx context.Context, p ListParams) (*OfferPage, error) {
	p.Status = models.StatusRejected
	return s.UserOffers(ctx, p)
}

// Pending lists offers still awaiting a response.
func (s *Service) Pending(ctx context.Context, p ListParams) (*OfferPage, error) {
	p.Status = models.StatusPending
	return s.UserOffers(ctx, p)
}

// AdvertisementOffers lists all offers on one advertisement.
func (s *Service) AdvertisementOffers(ctx context.Context, advertisementID string) ([]models.Offer, error) {
	var out struct {
		Offers []models.Offer `json:"offers"`
	}
	path := fmt.Sprintf("/offers/advertisement/%s", url.PathEscape(advertisementID))
	if err := s.api.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Offers, nil
}

// Stats returns the viewer's offer counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := s.api.Get(ctx, "/offers/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accept accepts a pending offer; only the receiver may do this.
func (s *Service) Accept(ctx context.Context, offerID string) (*models.Offer, error) {
	return s.act(ctx, offerID, "accept")
}

// Decline rejects a pending offer; only the receiver may do this.
func (s *Service) Decline(ctx context.Context, offerID string) (*models.Offer, error) {
	return s.act(ctx, offerID, "reject")
}

func (s *Service) act(ctx context.Context, offerID, verb string) (*models.Offer, error) {
	var out struct {
		Offer models.Offer `json:"offer"`
	}
	path := fmt.Sprintf("/offers/%s/%s", url.PathEscape(offerID), verb)
	if err := s.api.Post(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Offer, nil
}
