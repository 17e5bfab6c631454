package api

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ykhdr/rainbow-hash/internal/http/middleware"
	"github.com/ykhdr/rainbow-hash/internal/rainbow"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type CrackRequest struct {
	Hash string `json:"hash"`
}

type CrackResponse struct {
	Hash      string `json:"hash"`
	Found     bool   `json:"found"`
	Plaintext string `json:"plaintext,omitempty"`
}

type TableResponse struct {
	ChainLength int `json:"chainLength"`
	Entries     int `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	l       zerolog.Logger
	addr    string
	cracker *rainbow.Cracker
}

func NewServer(addr string, cracker *rainbow.Cracker) *Server {
	return &Server{
		addr:    addr,
		cracker: cracker,
		l: log.With().
			Str("domain", "api-server").
			Str("type", "http").
			Logger(),
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(s.l))
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	apiRouter := router.NewRoute().Subrouter()
	apiRouter.Use(middleware.ApplicationJsonContentTypeMiddleware())
	apiRouter.HandleFunc("/api/hash/crack", s.handleHashCrack).Methods(http.MethodPost)
	apiRouter.HandleFunc("/api/hash/crack/{hash}", s.handleHashCrackGet).Methods(http.MethodGet)
	apiRouter.HandleFunc("/api/table", s.handleTable).Methods(http.MethodGet)
	return router
}

// Start serves until ctx is done, then shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	errC := make(chan error, 1)
	go func() {
		s.l.Info().Str("address", s.addr).Msg("Api server is running")
		errC <- server.ListenAndServe()
	}()
	select {
	case err := <-errC:
		s.l.Error().Err(err).Msg("Api server failed")
		return errors.Wrap(err, "api server failed")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "api server shutdown")
	}
	s.l.Debug().Msg("Api server stopped")
	return nil
}

func (s *Server) handleHashCrack(w http.ResponseWriter, r *http.Request) {
	var req CrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.l.Warn().Err(err).Msg("Invalid request")
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.crack(w, r, req.Hash)
}

func (s *Server) handleHashCrackGet(w http.ResponseWriter, r *http.Request) {
	s.crack(w, r, mux.Vars(r)["hash"])
}

func (s *Server) crack(w http.ResponseWriter, r *http.Request, hash string) {
	l := s.l.With().Str("request-id", uuid.NewString()).Str("hash", hash).Logger()
	target, err := rainbow.ParseDigest(hash)
	if err != nil {
		l.Debug().Err(err).Msg("Invalid hash")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	plaintext, found, err := s.cracker.Crack(r.Context(), target)
	if err != nil {
		l.Warn().Err(err).Msg("Crack interrupted")
		s.writeError(w, http.StatusServiceUnavailable, "crack interrupted")
		return
	}
	l.Info().Bool("found", found).Dur("elapsed", time.Since(start)).Msg("Crack finished")
	s.writeJson(w, http.StatusOK, &CrackResponse{
		Hash:      target.Hex(),
		Found:     found,
		Plaintext: plaintext,
	})
}

func (s *Server) handleTable(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, &TableResponse{
		ChainLength: s.cracker.ChainLength(),
		Entries:     s.cracker.Table().Len(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.l.Warn().Err(err).Msg("Failed to write health response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJson(w, status, &errorResponse{Error: msg})
}

func (s *Server) writeJson(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.l.Warn().Err(err).Msg("Failed to encode response")
	}
}
