// Package api публикует расчеты и диалог бота по HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-calculator-bot/internal/conversation"
	"github.com/cloud-ru/loan-calculator-bot/internal/tools"
	"github.com/cloud-ru/loan-calculator-bot/internal/validators"
)

const maxBodyBytes = 1 << 20

// ConversationHandler обрабатывает события диалога
type ConversationHandler interface {
	Handle(ctx context.Context, ev conversation.Event) ([]conversation.Reply, error)
}

// Server обслуживает HTTP API
type Server struct {
	tools  map[string]tools.ToolHandler
	flow   ConversationHandler
	logger *zap.Logger
}

// NewServer создает HTTP API поверх инструментов расчета и диалога
func NewServer(registry map[string]tools.ToolHandler, flow ConversationHandler, logger *zap.Logger) *Server {
	return &Server{tools: registry, flow: flow, logger: logger}
}

// Routes возвращает корневой обработчик с middleware
func (s *Server) Routes() http.Handler {
	standardMiddleware := alice.New(
		handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.logger)), handlers.PrintRecoveryStack(true)),
		s.logRequest,
	)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/v1/tools", s.listTools).Methods("GET")
	r.HandleFunc("/v1/tools/{name}", s.callTool).Methods("POST")
	r.HandleFunc("/v1/chats/{chatID}/events", s.chatEvent).Methods("POST")

	return standardMiddleware.Then(handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"}),
	)(r))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"tools": tools.Names(s.tools)})
}

func (s *Server) callTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	tool, ok := s.tools[name]
	if !ok {
		s.clientError(w, http.StatusNotFound, "unknown tool "+name)
		return
	}

	var params map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := tool(r.Context(), params)
	if err != nil {
		if validators.IsValidationError(err) {
			s.clientError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type chatEventRequest struct {
	Kind     conversation.EventKind `json:"kind"`
	Text     string                 `json:"text"`
	UserName string                 `json:"user_name"`
}

type chatEventResponse struct {
	Replies []conversation.Reply `json:"replies"`
}

func (s *Server) chatEvent(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(mux.Vars(r)["chatID"], 10, 64)
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	var req chatEventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Kind {
	case conversation.EventCommand, conversation.EventText, conversation.EventCallback:
	default:
		s.clientError(w, http.StatusBadRequest, "kind must be one of command, text, callback")
		return
	}

	replies, err := s.flow.Handle(r.Context(), conversation.Event{
		ChatID:   chatID,
		Kind:     req.Kind,
		Text:     req.Text,
		UserName: req.UserName,
	})
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, chatEventResponse{Replies: replies})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) clientError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
