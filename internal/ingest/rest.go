package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"transitdash/internal/config"
	"transitdash/internal/model"
)

type RESTServer struct {
	out    chan<- model.Alert
	logger *slog.Logger
}

func NewRESTServer(out chan<- model.Alert, logger *slog.Logger) *RESTServer {
	return &RESTServer{out: out, logger: logger}
}

func StartREST(ctx context.Context, cfg *config.Manager, out chan<- model.Alert, logger *slog.Logger) *http.Server {
	current := cfg.Get().Ingest.REST
	if !current.Enabled {
		if logger != nil {
			logger.Info("rest alert feed disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("rest alert feed enabled", "addr", current.Addr)
	}
	server := NewRESTServer(out, logger)
	httpServer := &http.Server{Addr: current.Addr, Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("rest alert feed server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *RESTServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/alerts", s.handleAlerts)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func (s *RESTServer) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	list, failed, err := ParseFeed(body)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("rest alert feed rejected", "err", err)
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	accepted := 0
	for _, a := range list {
		if SendNonBlocking(r.Context(), s.out, a, s.logger) {
			accepted++
		} else {
			failed++
		}
	}
	if failed > 0 && s.logger != nil {
		s.logger.Warn("rest alert feed partially rejected", "accepted", accepted, "failed", failed)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{
		"accepted": accepted,
		"failed":   failed,
	})
}
