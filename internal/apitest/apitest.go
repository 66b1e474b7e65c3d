// Package apitest runs an in-process stand-in for the exam code server's
// JSON API so client-side packages can be tested end to end.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// APIPath is the prefix the API is mounted under.
const APIPath = "/api/2.0"

type errorResponse struct {
	Code  int
	Error string
}

// Server is a fake code server. Users log in with the passwords in Users and
// receive session ids from NextSessionID.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	users         map[string]string
	sessions      map[string]bool
	nextSessionID string
	code          string
	expiresNs     int64
	serverTimeNs  int64
	codeStatus    int
	codeBody      string
	codeRequests  int
	lastCodeReq   http.Header
	lastAuthBody  map[string]any
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:         map[string]string{"alice": "s3cret"},
		sessions:      make(map[string]bool),
		nextSessionID: "abc",
	}

	r := chi.NewRouter()
	r.Route(APIPath, func(r chi.Router) {
		r.Post("/auth", s.handleAuth)
		r.Get("/code", s.handleCode)
		r.Post("/check", s.handleCheck)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: http.StatusNotFound, Error: http.StatusText(http.StatusNotFound)})
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API root for client.New.
func (s *Server) BaseURL() string { return s.URL + APIPath }

// SetNextSessionID sets the id handed out by the next successful login.
func (s *Server) SetNextSessionID(id string) {
	s.mu.Lock()
	s.nextSessionID = id
	s.mu.Unlock()
}

// AddSession marks id as a valid session.
func (s *Server) AddSession(id string) {
	s.mu.Lock()
	s.sessions[id] = true
	s.mu.Unlock()
}

// Revoke invalidates a session; further code requests with it get 401.
func (s *Server) Revoke(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SetCode sets the code served to valid sessions. Timestamps are Unix
// nanoseconds as on the wire.
func (s *Server) SetCode(code string, expiresNs, serverTimeNs int64) {
	s.mu.Lock()
	s.code, s.expiresNs, s.serverTimeNs = code, expiresNs, serverTimeNs
	s.mu.Unlock()
}

// FailCode makes the code endpoint answer with status and a raw body until
// reset with status 0.
func (s *Server) FailCode(status int, body string) {
	s.mu.Lock()
	s.codeStatus, s.codeBody = status, body
	s.mu.Unlock()
}

// CodeRequests returns how many code requests were received.
func (s *Server) CodeRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codeRequests
}

// LastCodeHeader returns the headers of the most recent code request.
func (s *Server) LastCodeHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCodeReq.Clone()
}

// LastAuthBody returns the decoded body of the most recent login request.
func (s *Server) LastAuthBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuthBody
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Error: http.StatusText(http.StatusBadRequest)})
		return
	}
	user, _ := body["User"].(string)
	pass, _ := body["Passwd"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAuthBody = body
	if want, ok := s.users[user]; !ok || user == "" || want != pass {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Code: http.StatusUnauthorized, Error: http.StatusText(http.StatusUnauthorized)})
		return
	}
	s.sessions[s.nextSessionID] = true
	writeJSON(w, http.StatusOK, map[string]string{"SessionID": s.nextSessionID})
}

func (s *Server) handleCode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codeRequests++
	s.lastCodeReq = r.Header.Clone()

	if s.codeStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.codeStatus)
		w.Write([]byte(s.codeBody))
		return
	}
	if !s.sessions[r.Header.Get("X-Session-Key")] {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Code: http.StatusUnauthorized, Error: http.StatusText(http.StatusUnauthorized)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"Code":       s.code,
		"Expires":    s.expiresNs,
		"ServerTime": s.serverTimeNs,
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body struct{ Code string }
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Error: http.StatusText(http.StatusBadRequest)})
		return
	}
	s.mu.Lock()
	ok := body.Code != "" && body.Code == s.code
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]bool{"Status": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"Status": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
