// Command storefront is a smoke/demo harness for the cart and checkout
// subsystem. It exercises the guest cart against durable storage, runs the
// login merge and a checkout confirmation when BACKEND_URL points at a live
// backend, and serves Prometheus metrics over h2c.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mercaly/storefront/internal/cart"
	"github.com/mercaly/storefront/internal/models"
	"github.com/mercaly/storefront/internal/remote"
	"github.com/mercaly/storefront/internal/session"
	"github.com/mercaly/storefront/internal/storage/sqlite"
	"github.com/mercaly/storefront/internal/tax"
	"github.com/mercaly/storefront/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/storefront.db")
	backendURL := getEnv("BACKEND_URL", "")
	metricsAddr := getEnv("METRICS_ADDR", ":9090")

	durable, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer durable.Close()
	slog.Info("Storage initialized", "database", dbPath)

	ctx := context.Background()

	sessions := session.NewStore(durable)
	auth, err := sessions.Load(ctx)
	if err != nil {
		slog.Error("Failed to load session", "error", err)
		os.Exit(1)
	}

	backend := remote.NewClient(backendURL, func() string {
		state, err := sessions.Load(ctx)
		if err != nil {
			return ""
		}
		return state.Token
	})

	manager := cart.NewManager(cart.NewGuestStore(durable), backend, auth)
	manager.Subscribe(func(s cart.Snapshot) {
		subtotal, taxTotal, total := tax.Totals(s.Items, 5)
		slog.Info("cart changed",
			"lines", len(s.Items),
			"loading", s.Loading,
			"authenticated", s.Authenticated,
			"subtotal", fmt.Sprintf("%.2f", subtotal),
			"tax", fmt.Sprintf("%.2f", taxTotal),
			"total", fmt.Sprintf("%.2f", total),
		)
	})

	if err := manager.Refresh(ctx); err != nil {
		slog.Warn("Initial cart refresh failed", "error", err)
	}

	// Guest-path exercise: add, bump, remove a demo line.
	demoPrice := 149.0
	demo := models.CartItem{
		ProductID: "demo-mug",
		Quantity:  1,
		Price:     &demoPrice,
		Product: &models.ProductSnapshot{
			Name:     "Demo Mug",
			Price:    demoPrice,
			IsActive: true,
			Stock:    10,
			Tax:      &models.TaxRule{Type: models.TaxPercentage, Value: 12},
		},
	}
	if !manager.Snapshot().Authenticated {
		if err := manager.AddToCart(ctx, demo); err != nil {
			slog.Error("Demo add failed", "error", err)
		}
		if err := manager.UpdateQuantity(ctx, demo.ProductID, 3, ""); err != nil {
			slog.Error("Demo update failed", "error", err)
		}
		if err := manager.RemoveFromCart(ctx, demo.ProductID, ""); err != nil {
			slog.Error("Demo remove failed", "error", err)
		}
	}

	if backendURL != "" && auth.IsUser() {
		slog.Info("Running merge against backend", "backend", backendURL)
		if err := manager.MergeGuestCart(ctx); err != nil {
			slog.Error("Merge failed", "error", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	h2cHandler := h2c.NewHandler(mux, &http2.Server{})
	slog.Info("Metrics server starting", "address", metricsAddr)
	if err := http.ListenAndServe(metricsAddr, h2cHandler); err != nil {
		slog.Error("Metrics server failed", "error", err)
		os.Exit(1)
	}
}
