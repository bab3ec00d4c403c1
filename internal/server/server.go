// Package server exposes embedding similarity over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"instrit/internal/embedding"
	"instrit/internal/models"
	"instrit/internal/similarity"
)

const maxBodyBytes = 4 << 20

// Server answers similarity requests against an embedded corpus.
type Server struct {
	embedder embeddings.Embedder
	corpus   *Corpus
	topK     int
	router   *http.ServeMux
	server   *http.Server
}

func New(addr string, embedder embeddings.Embedder, corpus *Corpus, topK int) *Server {
	s := &Server{embedder: embedder, corpus: corpus, topK: topK}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /similarities", s.handleSimilarities)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "documents": s.corpus.Len()})
	})
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.server.Addr).Msg("HTTP server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}

type similaritiesRequest struct {
	Queries  []string `json:"queries"`
	Passages []string `json:"passages"`
}

type similaritiesResponse struct {
	Scores [][]float64 `json:"scores"`
}

func (s *Server) handleSimilarities(w http.ResponseWriter, r *http.Request) {
	var req similaritiesRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Queries) == 0 || len(req.Passages) == 0 {
		writeError(w, http.StatusBadRequest, "queries and passages must not be empty")
		return
	}

	ctx := r.Context()
	queryVecs, err := embedding.EmbedTexts(ctx, s.embedder, req.Queries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	passageVecs, err := embedding.EmbedTexts(ctx, s.embedder, req.Passages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	scores, err := similarity.Matrix(queryVecs, passageVecs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, similaritiesResponse{Scores: scores})
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Question string                `json:"question"`
	Results  []models.SearchResult `json:"results"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}
	vec, err := s.embedder.EmbedQuery(r.Context(), req.Question)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to embed question: %v", err))
		return
	}
	results, err := s.corpus.Search(vec, s.topK)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Question: req.Question, Results: results})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
