// Package devserver is a small in-memory stand-in for the school portal
// API. It serves fixture questions, papers, homework and reward rules,
// issues tokens, and records history, so the client can be developed and
// tested without the real backend.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/question"
)

// historyDateLayout is how the portal formats history dates.
const historyDateLayout = "2006-01-02 15:04:05"

// errResponse is a failure reported inside a 200 envelope with code 1.
type errResponse struct{ msg string }

func (e errResponse) Error() string { return e.msg }

func fail(format string, args ...any) error {
	return errResponse{msg: fmt.Sprintf(format, args...)}
}

type envelope struct {
	Code      int    `json:"code"`
	Err       string `json:"err"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Server is the development portal.
type Server struct {
	cfg    Config
	fx     *Fixture
	auth   *authService
	logger *log.Logger
	now    func() time.Time

	questions []question.Question // decoded fixture questions, same order as fx.Questions
	byID      map[string]json.RawMessage

	mu          sync.Mutex
	history     []portal.HistoryEntry
	completions map[string]map[string]bool // homework id -> student id
	replies     map[string]any             // idempotency key -> response data
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds a Server over fx. A nil fixture loads cfg.FixturesPath, or
// the embedded demo data when no path is set.
func New(cfg Config, fx *Fixture, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fx == nil {
		var err error
		if cfg.FixturesPath != "" {
			fx, err = LoadFixture(cfg.FixturesPath)
		} else {
			fx, err = DefaultFixture()
		}
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:         cfg,
		fx:          fx,
		now:         time.Now,
		byID:        make(map[string]json.RawMessage, len(fx.Questions)),
		completions: make(map[string]map[string]bool),
		replies:     make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New("devserver")
		s.logger.SetLevel(log.OFF)
	}
	s.auth = &authService{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL, now: s.now}

	for _, raw := range fx.Questions {
		var q question.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("decode fixture question: %w", err)
		}
		s.questions = append(s.questions, q)
		s.byID[q.ID] = raw
	}
	return s, nil
}

// Handler returns the HTTP handler serving the API under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", portal.IdempotencyHeader},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handle(s.login))
		r.Get("/config/public", s.handle(s.publicConfig))

		r.Group(func(pr chi.Router) {
			pr.Use(s.auth.middleware)
			pr.Get("/questions", s.handle(s.listQuestions))
			pr.Get("/papers", s.handle(s.listPapers))
			pr.Get("/homeworks", s.handle(s.listHomeworks))
			pr.Put("/homeworks/{id}/complete", s.handle(s.idempotent(s.completeHomework)))
			pr.Get("/reinforcements", s.handle(s.listRules))
			pr.Get("/history", s.handle(s.listHistory))
			pr.Post("/history", s.handle(s.idempotent(s.createHistory)))
		})
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Infof("dev portal listening on %s", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Infof("%s %s %d %s req=%s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
	})
}

type handlerFunc func(r *http.Request) (any, error)

// handle writes h's result as an envelope. Failures are reported with
// code 1 and HTTP 200, matching the portal.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h(r)
		env := envelope{Data: data, Timestamp: s.now().UnixMilli()}
		if err != nil {
			var resp errResponse
			if !errors.As(err, &resp) {
				s.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
			}
			env.Code, env.Err, env.Data = 1, err.Error(), nil
		}
		writeJSON(w, http.StatusOK, env)
	}
}

// idempotent replays the first successful response for a repeated
// idempotency key from the same user.
func (s *Server) idempotent(h handlerFunc) handlerFunc {
	return func(r *http.Request) (any, error) {
		key := r.Header.Get(portal.IdempotencyHeader)
		if key == "" {
			return h(r)
		}
		key = claimsFrom(r.Context()).UserID + "|" + r.URL.Path + "|" + key

		s.mu.Lock()
		prev, seen := s.replies[key]
		s.mu.Unlock()
		if seen {
			return prev, nil
		}

		data, err := h(r)
		if err == nil {
			s.mu.Lock()
			s.replies[key] = data
			s.mu.Unlock()
		}
		return data, err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) login(r *http.Request) (any, error) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fail("Invalid request body")
	}

	idx := slices.IndexFunc(s.fx.Users, func(u FixtureUser) bool { return u.Username == body.Username })
	if idx < 0 {
		return nil, fail("Invalid username or password")
	}
	u := s.fx.Users[idx]
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		return nil, fail("Invalid username or password")
	}

	token, err := s.auth.issue(u)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return portal.LoginResult{
		Token: token,
		User:  portal.User{ID: u.ID, Username: u.Username, Role: u.Role, Grade: u.Grade},
	}, nil
}

func (s *Server) publicConfig(*http.Request) (any, error) {
	return s.fx.Config, nil
}

func (s *Server) listQuestions(r *http.Request) (any, error) {
	var subject question.Subject
	if v := r.URL.Query().Get("subject"); v != "" {
		subject = question.ParseSubject(v)
	}
	grade := 0
	if v := r.URL.Query().Get("grade"); v != "" {
		g, err := strconv.Atoi(v)
		if err != nil {
			return nil, fail("Invalid grade: %s", v)
		}
		grade = g
	}

	out := []json.RawMessage{}
	for i, q := range s.questions {
		if subject != "" && q.Subject != subject {
			continue
		}
		if grade > 0 && q.Grade != grade {
			continue
		}
		out = append(out, s.fx.Questions[i])
	}
	return out, nil
}

type paperView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Questions     []json.RawMessage `json:"questions"`
	Total         int               `json:"total"`
	AssignedCount int               `json:"assignedCount"`
}

func (s *Server) listPapers(*http.Request) (any, error) {
	out := make([]paperView, 0, len(s.fx.Papers))
	for _, p := range s.fx.Papers {
		v := paperView{ID: p.ID, Name: p.Name, Questions: []json.RawMessage{}, Total: len(p.QuestionIDs)}
		for _, id := range p.QuestionIDs {
			v.Questions = append(v.Questions, s.byID[id])
		}
		for _, h := range s.fx.Homeworks {
			if h.PaperID == p.ID {
				v.AssignedCount++
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// homeworkView fills the progress fields of h as seen by the caller.
// Students see their own status; staff see the class status.
func (s *Server) homeworkView(h portal.Homework, claims *portal.Claims) portal.Homework {
	done := s.completions[h.ID]
	h.Total = len(h.StudentIDs)
	h.Completed = len(done)
	h.Status = portal.HomeworkPending
	switch {
	case claims.Role == portal.RoleStudent:
		if done[claims.UserID] {
			h.Status = portal.HomeworkCompleted
		}
	case h.Total > 0 && h.Completed >= h.Total:
		h.Status = portal.HomeworkCompleted
	}
	return h
}

func (s *Server) listHomeworks(r *http.Request) (any, error) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []portal.Homework{}
	for _, h := range s.fx.Homeworks {
		if claims.Role == portal.RoleStudent && !h.AssignedTo(claims.UserID) {
			continue
		}
		if claims.Role == portal.RoleTeacher && h.TeacherID != claims.UserID {
			continue
		}
		out = append(out, s.homeworkView(h, claims))
	}
	return out, nil
}

func (s *Server) completeHomework(r *http.Request) (any, error) {
	claims := claimsFrom(r.Context())
	id := chi.URLParam(r, "id")

	idx := slices.IndexFunc(s.fx.Homeworks, func(h portal.Homework) bool { return h.ID == id })
	if idx < 0 {
		return nil, fail("Homework not found")
	}
	h := s.fx.Homeworks[idx]
	if !h.AssignedTo(claims.UserID) {
		return nil, fail("Homework not assigned to this student")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completions[id] == nil {
		s.completions[id] = make(map[string]bool)
	}
	s.completions[id][claims.UserID] = true
	return s.homeworkView(h, claims), nil
}

func (s *Server) listRules(*http.Request) (any, error) {
	return s.fx.Reinforcements, nil
}

func (s *Server) createHistory(r *http.Request) (any, error) {
	claims := claimsFrom(r.Context())

	var p portal.HistoryPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return nil, fail("Invalid request body")
	}
	questions, err := json.Marshal(p.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}

	entry := portal.HistoryEntry{
		ID:           uuid.NewString(),
		StudentID:    claims.UserID,
		Type:         p.Type,
		Name:         p.Name,
		NameEn:       p.NameEn,
		CorrectCount: p.CorrectCount,
		WrongCount:   p.WrongCount,
		Total:        p.Total,
		HomeworkID:   p.HomeworkID,
		Date:         s.now().Format(historyDateLayout),
		Questions:    questions,
	}

	s.mu.Lock()
	s.history = append(s.history, entry)
	s.mu.Unlock()
	return entry, nil
}

func (s *Server) listHistory(r *http.Request) (any, error) {
	claims := claimsFrom(r.Context())
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 10)

	s.mu.Lock()
	var mine []portal.HistoryEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].StudentID == claims.UserID {
			mine = append(mine, s.history[i])
		}
	}
	s.mu.Unlock()

	hp := portal.HistoryPage{List: []portal.HistoryEntry{}, Total: int64(len(mine)), Page: page, PageSize: pageSize}
	start := (page - 1) * pageSize
	if start < len(mine) {
		hp.List = mine[start:min(start+pageSize, len(mine))]
	}
	return hp, nil
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}
