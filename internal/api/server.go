package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pet-assistant/backend/internal/engine"
	"github.com/pet-assistant/backend/internal/search"
)

type Server struct {
	Engine  *engine.Engine
	Logger  *logrus.Entry
	Router  *http.ServeMux
	Metrics *Metrics
}

func NewServer(eng *engine.Engine, logger *logrus.Entry) *Server {
	s := &Server{
		Engine:  eng,
		Logger:  logger,
		Router:  http.NewServeMux(),
		Metrics: NewMetrics(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.HandleFunc("/api/v1/match", s.handleMatch)
	s.Router.HandleFunc("/api/v1/chat", s.handleChat)
	s.Router.HandleFunc("/api/v1/status", s.handleStatus)
	s.Router.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))
}

// Start serves the API on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.Logger.Infof("Starting API Server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the router wrapped with request logging
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.Router.ServeHTTP(w, r)
		s.Logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Request served")
	})
}

// Responses
type ErrorResponse struct {
	Error string `json:"error"`
}

type MatchResponse struct {
	Query   string             `json:"query"`
	Result  search.MatchResult `json:"result"`
	Ranking []RankedView       `json:"ranking"`
}

type RankedView struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Query    string             `json:"query"`
	Service  search.MatchResult `json:"service"`
	Reply    string             `json:"reply"`
	ToolUsed bool               `json:"tool_used"`
}

type StatusResponse struct {
	Services  int    `json:"services"`
	Queries   int64  `json:"queries"`
	Matched   int64  `json:"matched"`
	Unmatched int64  `json:"unmatched"`
	Uptime    string `json:"uptime"`
}

// Handlers

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonResponse(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'q' is required"})
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Query 'limit' must be a non-negative integer"})
			return
		}
		limit = n
	}

	result := s.Engine.LookupService(query)
	s.Metrics.observeMatch(result.Matched())

	ranked := s.Engine.Catalog.Rank(query, limit)
	response := MatchResponse{
		Query:   query,
		Result:  result,
		Ranking: make([]RankedView, len(ranked)),
	}
	for i, hit := range ranked {
		response.Ranking[i] = RankedView{Title: hit.Service.Title, Score: hit.Score}
	}

	jsonResponse(w, http.StatusOK, response)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonResponse(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "Message is required"})
		return
	}

	start := time.Now()
	turn, err := s.Engine.NewConversation().Respond(r.Context(), req.Message)
	s.Metrics.ChatDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.Metrics.ChatErrors.Inc()
		s.Logger.WithError(err).Error("Chat turn failed")
		jsonResponse(w, http.StatusBadGateway, ErrorResponse{Error: "Language model request failed"})
		return
	}
	s.Metrics.observeMatch(turn.Result.Matched())

	jsonResponse(w, http.StatusOK, ChatResponse{
		Query:    turn.Query,
		Service:  turn.Result,
		Reply:    turn.Reply,
		ToolUsed: turn.ToolUsed,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonResponse(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	stats := s.Engine.Snapshot()

	jsonResponse(w, http.StatusOK, StatusResponse{
		Services:  stats.Services,
		Queries:   stats.Queries,
		Matched:   stats.Matched,
		Unmatched: stats.Unmatched,
		Uptime:    time.Since(stats.StartTime).Round(time.Second).String(),
	})
}

func jsonResponse(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
