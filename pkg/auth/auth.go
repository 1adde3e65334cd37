package auth

import (
	"context"
	"fmt"

	"roundbuy/pkg/logger"
	"roundbuy/pkg/models"
	"roundbuy/pkg/session"
	"roundbuy/pkg/transport"
)

// Service wraps the auth endpoints and keeps the injected session in
// step with token side effects.
type Service struct {
	api  *transport.Client
	sess *session.Session
}

func NewService(api *transport.Client, sess *session.Session) *Service {
	return &Service{api: api, sess: sess}
}

// RegisterInput mirrors the /auth/register payload.
type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

type loginData struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// Register creates an account; it does not sign the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	if in.Language == "" {
		in.Language = "en"
	}
	return s.api.Post(ctx, "/auth/register", in, nil)
}

// Login authenticates, persists both tokens and the profile, and
// moves the session to authenticated. Tokens missing from a success
// response are treated as a failure; nothing is persisted.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	var data loginData
	err := s.api.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.AccessToken == "" || data.RefreshToken == "" {
		return nil, fmt.Errorf("login succeeded but no tokens were provided by the server")
	}

	store := s.sess.Store()
	if err := store.StoreTokens(data.AccessToken, data.RefreshToken); err != nil {
		return nil, err
	}
	if err := store.SaveUser(data.User); err != nil {
		return nil, err
	}
	if err := s.sess.Authenticate(data.User); err != nil {
		return nil, err
	}
	logger.Info("login_ok", "user", data.User.ID)
	return &data.User, nil
}

// Logout clears credentials locally and invalidates the session. The
// server holds no logout state for this client.
func (s *Service) Logout(ctx context.Context) error {
	return s.sess.Invalidate()
}

// Profile fetches the authenticated user's profile and refreshes the
// cached copy.
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	var data struct {
		User models.User `json:"user"`
	}
	if err := s.api.Get(ctx, "/user/profile", nil, &data); err != nil {
		return nil, err
	}
	if err := s.sess.Store().SaveUser(data.User); err != nil {
		logger.Warn("profile_cache_failed", "error", err)
	}
	return &data.User, nil
}
