package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maison-group/supplier-risk-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON scoring API",
	Long: `Start an HTTP server exposing the scoring engine:

  GET  /health      liveness check
  POST /score       score supplier records sent in the request body
  GET  /summary     score the stored directory and return the portfolio summary
  GET  /enrichment  snapshot of cached location-risk enrichments`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, cache, err := buildEngine(cfg.Scoring, false)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/score", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Suppliers []model.Supplier `json:"suppliers"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if len(body.Suppliers) == 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "suppliers is required"})
				return
			}

			results, skipped := engine.ScoreAll(req.Context(), body.Suppliers)
			writeJSON(w, http.StatusOK, scoreResponse{
				Results: results,
				Summary: engine.Aggregate(results),
				Skipped: skipped,
			})
		})

		r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
			records, err := st.ListSuppliers(req.Context())
			if err != nil {
				zap.L().Error("list suppliers failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
				return
			}
			results, _ := engine.ScoreAll(req.Context(), records)
			writeJSON(w, http.StatusOK, engine.Aggregate(results))
		})

		r.Get("/enrichment", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"locations": cache.Len(),
				"entries":   cache.Entries(),
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownServer(srv)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type scoreResponse struct {
	Results []model.RiskResult     `json:"results"`
	Summary model.PortfolioSummary `json:"summary"`
	Skipped []string               `json:"skipped,omitempty"`
}

// shutdownServer drains in-flight requests on a fresh context. The signal
// context that triggers shutdown is already cancelled and would cut the
// drain window to zero.
func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
