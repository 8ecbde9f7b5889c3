package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sheet_entry_bot/internal/telegram"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UpdateHandler consumes one decoded webhook update. Implementations own all
// error handling; the server never hears back.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *telegram.Update)
}

// Server is a thin wrapper over chi + stdlib http.Server that receives Bot
// API webhook posts and dispatches each update to the handler in its own
// goroutine.
type Server struct {
	addr    string
	secret  string
	handler UpdateHandler
	srv     *http.Server
}

func NewServer(addr, secret string, handler UpdateHandler) *Server {
	s := &Server{
		addr:    addr,
		secret:  secret,
		handler: handler,
	}

	mux := chi.NewRouter()
	mux.Post("/telegram/webhook/{secret}", s.receiveUpdate)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run starts the server and blocks until Shutdown or listen failure.
func (s *Server) Run() error {
	log.Info().Str("addr", s.addr).Msg("Webhook server listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Mux exposes the router for tests.
func (s *Server) Mux() http.Handler {
	return s.srv.Handler
}

func (s *Server) receiveUpdate(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "secret") != s.secret {
		log.Warn().Str("remote", r.RemoteAddr).Msg("Webhook post with bad secret")
		http.NotFound(w, r)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Warn().Err(err).Msg("Failed to decode webhook payload")
		// Still 200: Telegram retries failed deliveries and a payload we
		// cannot decode will not improve on the second attempt.
		w.WriteHeader(http.StatusOK)
		return
	}

	traceID := uuid.NewString()
	log.Debug().
		Str("trace_id", traceID).
		Int64("update_id", update.UpdateID).
		Msg("Received update")

	// Acknowledge immediately; handling happens concurrently and is not
	// tied to the request context.
	go s.handler.HandleUpdate(context.Background(), &update)

	w.WriteHeader(http.StatusOK)
}
