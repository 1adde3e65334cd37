package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"roundbuy/pkg/auth"
	"roundbuy/pkg/config"
	"roundbuy/pkg/logger"
	"roundbuy/pkg/messaging"
	"roundbuy/pkg/offers"
	"roundbuy/pkg/session"
	"roundbuy/pkg/transport"
)

// env bundles everything a command needs: loaded config, the durable
// session and an authenticated API client.
type env struct {
	cfg  *config.Config
	sess *session.Session
	api  *transport.Client

	auth *auth.Service
	msg  *messaging.Service
	off  *offers.Service
}

// newEnv loads config, opens the session store and restores any saved
// credentials. Callers must defer close.
func newEnv(cmd *cobra.Command) (*env, error) {
	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = "debug"
	}
	logger.InitWithLevel(level)

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("no API base URL configured; set base_url in %s or ROUNDBUY_BASE_URL", path)
	}

	store, err := session.Open(cfg.Storage())
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess := session.New(store)
	if err := sess.Restore(); err != nil {
		store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	opts := []transport.Option{transport.WithTimeout(cfg.Timeout())}
	if cfg.Engine == "fasthttp" {
		opts = append(opts, transport.WithDoer(transport.NewFastHTTPDoer(cfg.Timeout())))
	}
	if cfg.RPS > 0 {
		opts = append(opts, transport.WithRateLimit(cfg.RPS, cfg.Burst))
	}
	api := transport.New(cfg.BaseURL, store, opts...)

	return &env{
		cfg:  cfg,
		sess: sess,
		api:  api,
		auth: auth.NewService(api, sess),
		msg:  messaging.NewService(api),
		off:  offers.NewService(api),
	}, nil
}

// requireAuth returns an error when no user is signed in.
func (e *env) requireAuth() error {
	if !e.sess.Authenticated() {
		return fmt.Errorf("not signed in; run 'roundbuy login' first")
	}
	return nil
}

func (e *env) viewerID() string {
	if u := e.sess.User(); u != nil {
		return u.ID
	}
	return ""
}

func (e *env) close() {
	if err := e.sess.Dispose(); err != nil {
		logger.Warn("session dispose failed", "error", err)
	}
}
