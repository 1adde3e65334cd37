// mockapi runs the in-memory RoundBuy API with a small seeded data
// set, for local development of the client and CLI.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"roundbuy/internal/mockapi"
	"roundbuy/pkg/logger"
	"roundbuy/pkg/models"
)

func main() {
	addr := flag.String("addr", ":5001", "listen address")
	ttl := flag.Duration("access-ttl", time.Hour, "access token lifetime")
	flag.Parse()

	logger.Init()

	srv := mockapi.New()
	srv.SetAccessTTL(*ttl)
	seed(srv)

	hs := &http.Server{Addr: *addr, Handler: srv.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mockapi_listening", "addr", *addr)
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("mockapi_serve_failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shutdownCtx)
	logger.Info("mockapi_stopped")
}

func seed(srv *mockapi.Server) {
	seller := srv.SeedUser("Demo Seller", "seller@roundbuy.test", "password")
	buyer := srv.SeedUser("Demo Buyer", "buyer@roundbuy.test", "password")
	ad := srv.SeedAdvertisement(seller.ID, "Vintage armchair", "GBP", 25000)
	logger.Info("mockapi_seeded",
		"seller", seller.Email, "buyer", buyer.Email,
		"advertisement", ad.ID, "price", ad.Price.Format(models.SymbolFor(ad.Currency)))
}
