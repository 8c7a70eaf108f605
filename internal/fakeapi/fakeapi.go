// Package fakeapi is an in-memory implementation of the projectdesk backend.
// Tests use it to count requests; `projectdesk demo-server` serves it for
// local runs.
package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

type account struct {
	user     domain.User
	password string
}

// Server holds users, postal codes and projects in memory.
type Server struct {
	mu         sync.Mutex
	secret     []byte
	tokenTTL   time.Duration
	accounts   map[string]account // by email
	ceps       map[string]domain.Address
	projects   map[int64]*domain.Project
	nextProjID int64
	nextTaskID int64
	calls      map[string]int
	now        func() time.Time
}

// New returns an empty backend.
func New() *Server {
	return &Server{
		secret:     []byte("fakeapi-secret"),
		tokenTTL:   24 * time.Hour,
		accounts:   make(map[string]account),
		ceps:       make(map[string]domain.Address),
		projects:   make(map[int64]*domain.Project),
		nextProjID: 1,
		nextTaskID: 1,
		calls:      make(map[string]int),
		now:        time.Now,
	}
}

// AddUser registers an account.
func (s *Server) AddUser(id int64, name, email, password string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{ID: id, Name: name, Email: email}
	s.accounts[strings.ToLower(email)] = account{user: u, password: password}
	return u
}

// AddCEP makes a postal code resolvable.
func (s *Server) AddCEP(a domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ceps[domain.NormalizeCEP(a.CEP)] = a
}

// AddProject stores p, assigning ids to it and its tasks when missing.
func (s *Server) AddProject(p domain.Project) domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextProjID
	}
	if p.ID >= s.nextProjID {
		s.nextProjID = p.ID + 1
	}
	if p.Status == "" {
		p.Status = domain.ProjectPlanned
	}
	if p.StartDate == "" {
		p.StartDate = s.now().Format("2006-01-02")
	}
	for i := range p.Tasks {
		s.assignTaskID(&p.Tasks[i])
	}
	stored := p
	s.projects[p.ID] = &stored
	return clone(stored)
}

// Project returns a copy of the stored project.
func (s *Server) Project(id int64) (domain.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, false
	}
	return clone(*p), true
}

// Calls returns how many requests hit route, written as "METHOD /pattern"
// (for example "POST /projects" or "GET /cep/{code}").
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// IssueToken signs a token for userID, as /login would.
func (s *Server) IssueToken(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(userID)
}

// RevokeAll invalidates every issued token; later requests get 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = append([]byte("rotated-"), s.secret...)
}

func (s *Server) issueToken(userID int64) string {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err) // HMAC signing with a byte key cannot fail
	}
	return tok
}

func (s *Server) assignTaskID(t *domain.Task) {
	if t.ID == 0 {
		t.ID = s.nextTaskID
	}
	if t.ID >= s.nextTaskID {
		s.nextTaskID = t.ID + 1
	}
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
}

func clone(p domain.Project) domain.Project {
	out := p
	out.Tasks = append([]domain.Task(nil), p.Tasks...)
	if out.Tasks == nil {
		out.Tasks = []domain.Task{}
	}
	if p.Address != nil {
		a := *p.Address
		out.Address = &a
	}
	return out
}

// Handler returns the HTTP API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countCalls)

	r.Post("/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/me", s.handleMe)
		r.Get("/cep/{code}", s.handleCEP)
		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects/{id}", s.handleGetProject)
		r.Put("/projects/{id}", s.handleUpdateProject)
		r.Delete("/projects/{id}", s.handleDeleteProject)
		r.Get("/reports/projects", s.handleReport)
	})
	return r
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.mu.Lock()
		s.calls[r.Method+" "+route]++
		s.mu.Unlock()
	})
}

type userKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := strings.TrimSpace(r.Header.Get("Authorization"))
		parts := strings.Fields(authz)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		s.mu.Lock()
		secret := s.secret
		s.mu.Unlock()

		claims := &jwt.RegisteredClaims{}
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		_, err := parser.ParseWithClaims(parts[1], claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		u, ok := s.userByID(id)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, u)))
	})
}

func (s *Server) userByID(id int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return domain.User{}, false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(strings.TrimSpace(body.Email))]
	if !ok || a.password != body.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.issueToken(a.user.ID)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) handleCEP(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeCEP(chi.URLParam(r, "code"))
	s.mu.Lock()
	a, ok := s.ceps[code]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "CEP não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	perPage := queryInt(r, "per_page", 10)
	page := queryInt(r, "page", 1)

	s.mu.Lock()
	ids := make([]int64, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := len(ids)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	data := []domain.Project{}
	start := (page - 1) * perPage
	for i := start; i < total && i < start+perPage; i++ {
		data = append(data, clone(*s.projects[ids[i]]))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, domain.Page{Data: data, CurrentPage: page, LastPage: lastPage, Total: total})
}

type projectBody struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        string        `json:"status"`
	CEP           string        `json:"cep"`
	Tasks         []domain.Task `json:"tasks"`
	TasksToRemove []int64       `json:"tasks_to_remove"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body projectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "The name field is required.")
		return
	}
	s.mu.Lock()
	addr, ok := s.ceps[domain.NormalizeCEP(body.CEP)]
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusUnprocessableEntity, "CEP inválido")
		return
	}
	for _, t := range body.Tasks {
		if t.Status != "" && !domain.ValidTaskStatus(t.Status) {
			writeMessage(w, http.StatusUnprocessableEntity, "invalid task status")
			return
		}
	}
	tasks := make([]domain.Task, len(body.Tasks))
	for i, t := range body.Tasks {
		t.ID = 0
		tasks[i] = t
	}
	p := s.AddProject(domain.Project{
		Name:        body.Name,
		Description: body.Description,
		Address:     &addr,
		Tasks:       tasks,
		UserID:      currentUser(r).ID,
	})
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	if existing.UserID != currentUser(r).ID {
		writeMessage(w, http.StatusForbidden, "This action is unauthorized.")
		return
	}
	var body projectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Status != "" && !domain.ValidProjectStatus(body.Status) {
		writeMessage(w, http.StatusUnprocessableEntity, "invalid project status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projects[existing.ID]
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	if body.CEP != "" {
		addr, ok := s.ceps[domain.NormalizeCEP(body.CEP)]
		if !ok {
			writeMessage(w, http.StatusUnprocessableEntity, "CEP inválido")
			return
		}
		p.Address = &addr
	}
	p.Name = body.Name
	p.Description = body.Description
	if body.Status != "" {
		p.Status = body.Status
	}

	remove := make(map[int64]bool, len(body.TasksToRemove))
	for _, id := range body.TasksToRemove {
		remove[id] = true
	}
	byID := make(map[int64]int, len(p.Tasks))
	kept := p.Tasks[:0]
	for _, t := range p.Tasks {
		if remove[t.ID] {
			continue
		}
		byID[t.ID] = len(kept)
		kept = append(kept, t)
	}
	for _, t := range body.Tasks {
		if t.ID != 0 {
			if idx, ok := byID[t.ID]; ok {
				kept[idx] = t
			}
			continue
		}
		s.assignTaskID(&t)
		kept = append(kept, t)
	}
	p.Tasks = kept
	writeJSON(w, http.StatusOK, clone(*p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	if existing.UserID != currentUser(r).ID {
		writeMessage(w, http.StatusForbidden, "This action is unauthorized.")
		return
	}
	s.mu.Lock()
	delete(s.projects, existing.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("start_date_from")
	to := r.URL.Query().Get("start_date_to")

	rep := domain.Report{ProjectsByStatus: map[string]int{}, TasksByStatus: map[string]int{}}
	s.mu.Lock()
	for _, p := range s.projects {
		day := p.StartDate
		if len(day) > 10 {
			day = day[:10]
		}
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		rep.ProjectsByStatus[p.Status]++
		for _, t := range p.Tasks {
			rep.TasksByStatus[t.Status]++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) lookupProject(w http.ResponseWriter, r *http.Request) (domain.Project, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return domain.Project{}, false
	}
	p, ok := s.Project(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return domain.Project{}, false
	}
	return p, true
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

var errNoUser = errors.New("no user in context")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMessage uses the Laravel-style {"message": ...} envelope.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
