// Package gatewaytest runs an in-process fake of the Rinde backend for tests and demos.
package gatewaytest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Veraticus/rinde/internal/model"
)

const refreshCookie = "jwt"

// Call records one request received by the fake.
type Call struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type account struct {
	password string
	name     string
}

// Server is a fake backend speaking the same JSON as the real one.
type Server struct {
	*httptest.Server
	users      map[string]account
	bills      map[string][]model.WireEntry
	secret     []byte
	calls      []Call
	accessTTL  time.Duration
	generation int
	mu         sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithAccessTTL sets how long issued access tokens live.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

// New starts a fake backend. Close it when done.
func New(opts ...Option) *Server {
	s := &Server{
		users:     make(map[string]account),
		bills:     make(map[string][]model.WireEntry),
		secret:    []byte(uuid.NewString()),
		accessTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := mux.NewRouter()
	router.Use(s.record)
	router.HandleFunc("/login", s.login).Methods("POST")
	router.HandleFunc("/refresh", s.refresh).Methods("POST")
	router.HandleFunc("/logout", s.requireAuth(s.logout)).Methods("POST")
	router.HandleFunc("/get-bills/{email}", s.requireAuth(s.getBills)).Methods("GET")
	router.HandleFunc("/create-bill", s.requireAuth(s.createBill)).Methods("POST")

	s.Server = httptest.NewServer(router)
	return s
}

// AddUser registers an account.
func (s *Server) AddUser(email, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = account{password: password, name: name}
}

// SeedBills appends raw records to a user's ledger.
func (s *Server) SeedBills(email string, bills ...model.WireEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	s.bills[email] = append(s.bills[email], bills...)
}

// Bills returns a copy of a user's ledger.
func (s *Server) Bills(email string) []model.WireEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WireEntry(nil), s.bills[strings.ToLower(email)]...)
}

// RevokeAccessTokens makes every access token issued so far fail with 401.
// Refresh cookies stay valid.
func (s *Server) RevokeAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo counts the requests received for path.
func (s *Server) CallsTo(path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Path == path {
			n++
		}
	}
	return n
}

// IssueToken mints an access token for email, valid for ttl (negative for an expired one).
func (s *Server) IssueToken(email string, ttl time.Duration) string {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	return s.sign(email, "access", gen, ttl)
}

func (s *Server) sign(email, kind string, gen int, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"typ":   kind,
		"gen":   gen,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("gatewaytest: sign token: %v", err))
	}
	return signed
}

func (s *Server) verify(raw, kind string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("bad claims")
	}
	if claims["typ"] != kind {
		return "", errors.New("wrong token kind")
	}
	if kind == "access" {
		gen, _ := claims["gen"].(float64)
		s.mu.Lock()
		current := s.generation
		s.mu.Unlock()
		if int(gen) < current {
			return "", errors.New("token revoked")
		}
	}
	email, _ := claims["email"].(string)
	return email, nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Token requerido"})
			return
		}
		email, err := s.verify(parts[1], "access")
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Token inválido"})
			return
		}
		next(w, r, email)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Solicitud inválida"})
		return
	}

	s.mu.Lock()
	acct, ok := s.users[strings.ToLower(body.Email)]
	gen := s.generation
	s.mu.Unlock()
	if !ok || acct.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Credenciales inválidas"})
		return
	}

	email := strings.ToLower(body.Email)
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    s.sign(email, "refresh", 0, 24*time.Hour),
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Inicio de sesión exitoso",
		"accessToken": s.sign(email, "access", gen, s.accessTTL),
		"user":        map[string]any{"email": email, "name": acct.name},
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Sin token de refresco"})
		return
	}
	email, err := s.verify(cookie.Value, "refresh")
	if err != nil {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Token de refresco inválido"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": s.IssueToken(email, s.accessTTL)})
}

func (s *Server) logout(w http.ResponseWriter, _ *http.Request, _ string) {
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"message": "Sesión cerrada correctamente"})
}

func (s *Server) getBills(w http.ResponseWriter, r *http.Request, email string) {
	if !strings.EqualFold(mux.Vars(r)["email"], email) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Acceso denegado"})
		return
	}
	bills := s.Bills(email)
	if bills == nil {
		bills = []model.WireEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Registros obtenidos", "result": bills})
}

func (s *Server) createBill(w http.ResponseWriter, r *http.Request, email string) {
	var body struct {
		model.WireEntry
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Solicitud inválida"})
		return
	}
	if !strings.EqualFold(body.Email, email) {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Acceso denegado"})
		return
	}
	if body.Type == "" || body.Date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Faltan campos"})
		return
	}
	s.SeedBills(email, body.WireEntry)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Registro creado", "result": body.WireEntry})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
