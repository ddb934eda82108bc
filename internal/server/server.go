// Package server exposes the assistant and the dashboard over HTTP/JSON.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/itsmostafa/irisdash/internal/assistant"
	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/dataset"
	"github.com/itsmostafa/irisdash/internal/logging"
	"github.com/itsmostafa/irisdash/internal/version"
)

var errSessionNotFound = errors.New("session not found")

// session pairs a chat session with the lock that keeps it single-writer.
type session struct {
	mu   sync.Mutex
	chat *chat.Session
}

// Server holds every live session in memory.
type Server struct {
	assistant *assistant.Assistant
	logger    *slog.Logger
	markdown  goldmark.Markdown

	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates the HTTP handler. A nil logger logs nothing.
func New(a *assistant.Assistant, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Server{
		assistant: a,
		logger:    logger,
		markdown:  goldmark.New(),
		sessions:  make(map[string]*session),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/messages", s.handleSendMessage)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)

	return chainMiddlewares(mux, s.withRecover, s.withLogging)
}

// DTOs

type sessionResponse struct {
	ID        string            `json:"id"`
	Language  string            `json:"language"`
	CreatedAt time.Time         `json:"created_at"`
	Messages  []messageResponse `json:"messages"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	Kind       string            `json:"kind"`
	Warning    string            `json:"warning,omitempty"`
	Error      string            `json:"error,omitempty"`
	Answer     string            `json:"answer,omitempty"`
	AnswerHTML string            `json:"answer_html,omitempty"`
	Code       string            `json:"code,omitempty"`
	CodeClosed *bool             `json:"code_closed,omitempty"`
	Result     *resultResponse   `json:"result,omitempty"`
	Messages   []messageResponse `json:"messages"`
}

type resultResponse struct {
	Value      any               `json:"value"`
	Repr       string            `json:"repr"`
	Output     string            `json:"output,omitempty"`
	Displays   []displayResponse `json:"displays,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

type displayResponse struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

type dashboardResponse struct {
	Species  []string  `json:"species"`
	Filtered frameJSON `json:"filtered"`
	Chart    chartJSON `json:"chart"`
	Summary  frameJSON `json:"summary"`
}

// handlers

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := version.Info()
	resp["status"] = "ok"
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := &session{chat: chat.NewSession()}

	s.mu.Lock()
	s.sessions[sess.chat.ID] = sess
	s.mu.Unlock()

	logging.FromContext(r.Context()).Info("session created", "session_id", sess.chat.ID)
	writeJSON(w, http.StatusCreated, s.toSessionResponse(sess.chat))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookup(r.PathValue("id"))
	if err != nil {
		notFound(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toSessionResponse(sess.chat))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.lookup(r.PathValue("id"))
	if err != nil {
		notFound(w, err)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sess.mu.Lock()
	out := s.assistant.Submit(r.Context(), sess.chat, req.Text)
	msgs := sess.chat.History.All()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, s.toTurnResponse(out, msgs))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := dataset.ViewOptions{
		Species: splitList(q["species"]),
		X:       q.Get("x"),
		Y:       q.Get("y"),
	}

	f, err := dataset.Iris()
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load dataset", "error", err)
		internalError(w, err)
		return
	}
	v, err := dataset.NewView(f, opts)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Species:  v.Species,
		Filtered: toFrameJSON(v.Filtered),
		Chart:    toChartJSON(v.Chart),
		Summary:  toFrameJSON(v.Summary),
	})
}

func (s *Server) lookup(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return sess, nil
}

// conversions

func (s *Server) toSessionResponse(c *chat.Session) sessionResponse {
	return sessionResponse{
		ID:        c.ID,
		Language:  s.assistant.Language(),
		CreatedAt: c.CreatedAt,
		Messages:  toMessagesResponse(c.History.All()),
	}
}

func (s *Server) toTurnResponse(out assistant.Outcome, msgs []chat.Message) turnResponse {
	resp := turnResponse{Kind: string(out.Kind), Messages: toMessagesResponse(msgs)}

	switch out.Kind {
	case assistant.KindWarning:
		resp.Warning = out.Err.Error()
	case assistant.KindOracleFailed:
		resp.Error = chat.ErrorPrefix + out.Err.Error()
	case assistant.KindAnswer:
		resp.Answer = out.Reply
		resp.AnswerHTML = s.renderMarkdown(out.Reply)
	case assistant.KindCode:
		closed := out.Closed
		resp.Code = out.Code
		resp.CodeClosed = &closed
		if out.Err != nil {
			resp.Error = "Error executing code: " + out.Err.Error()
			break
		}
		resp.Result = toResultResponse(out)
	}
	return resp
}

func (s *Server) renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(src), &buf); err != nil {
		s.logger.Warn("markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}

func toResultResponse(out assistant.Outcome) *resultResponse {
	res := out.Result
	displays := make([]displayResponse, 0, len(res.Displays))
	for _, d := range res.Displays {
		displays = append(displays, displayResponse{Kind: d.Kind, Value: jsonValue(d.Value)})
	}
	return &resultResponse{
		Value:      jsonValue(res.Value),
		Repr:       res.Repr,
		Output:     res.Output,
		Displays:   displays,
		DurationMs: res.Duration.Milliseconds(),
	}
}

func toMessagesResponse(msgs []chat.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return out
}

// splitList accepts both repeated and comma-separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// HTTP helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
