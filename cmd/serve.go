package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/internal/pipeline"
	"github.com/sells-group/salgsmotor/internal/report"
	"github.com/sells-group/salgsmotor/internal/resilience"
	"github.com/sells-group/salgsmotor/pkg/brreg"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP lookup server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(env.Pipeline, env.Breakers),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the lookup API around p. A nil breakers omits probe
// states from /healthz.
func newRouter(p enricher, breakers *resilience.ServiceBreakers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(breakers))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/v1/companies/{orgnr}", companyHandler(p))

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Probes map[string]string `json:"probes,omitempty"`
}

// healthHandler reports liveness plus the circuit state of every probe that
// has run. An open circuit degrades that probe only, so status stays ok.
func healthHandler(breakers *resilience.ServiceBreakers) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok"}
		if breakers != nil {
			states := breakers.States()
			resp.Probes = make(map[string]string, len(states))
			for name, st := range states {
				resp.Probes[name] = st.String()
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func companyHandler(p enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgnr := chi.URLParam(r, "orgnr")
		force := false
		if v := r.URL.Query().Get("force"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "force must be a boolean")
				return
			}
			force = b
		}

		log := zap.L().With(
			zap.String("orgnr", orgnr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)

		rec, err := p.Enrich(r.Context(), orgnr, force)
		if err != nil {
			status := enrichStatus(err)
			if status >= http.StatusInternalServerError {
				log.Error("lookup failed", zap.Error(err))
			} else {
				log.Info("lookup rejected", zap.Int("status", status), zap.Error(err))
			}
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, report.Result{
			OrgNumber:       rec.OrgNumber.String(),
			Record:          rec,
			Recommendations: p.Recommend(rec, time.Now()),
		})
	}
}

// enrichStatus maps an Enrich error to an HTTP status.
func enrichStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidOrgNumber):
		return http.StatusBadRequest
	case errors.Is(err, brreg.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrRegistryUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
