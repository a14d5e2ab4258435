package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-careteam-sync/domain"
)

// Backend is an in-memory care-team API served over httptest.
//
// Routes are counted by their mux pattern, e.g. "GET /api/messages/{userId}".
type Backend struct {
	server *httptest.Server

	mu        sync.Mutex
	users     []domain.User
	userIDs   []string
	messages  map[string][]domain.ChatMessage
	unread    map[string]int
	surveys   []domain.SurveyEntry
	members   []domain.CareTeamMember
	passwords map[string]string
	calls     map[string]int
	auth      []string
	failures  map[string]injectedFailure
	hold      map[string]chan struct{}
}

type injectedFailure struct {
	status int
	body   any
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		messages:  make(map[string][]domain.ChatMessage),
		unread:    make(map[string]int),
		passwords: make(map[string]string),
		calls:     make(map[string]int),
		failures:  make(map[string]injectedFailure),
		hold:      make(map[string]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users", b.listUsers)
	mux.HandleFunc("GET /api/user-ids", b.listUserIDs)
	mux.HandleFunc("POST /api/users/assign-name", b.assignName)
	mux.HandleFunc("DELETE /api/users/{userId}", b.deleteUser)
	mux.HandleFunc("GET /api/messages/last-messages", b.lastMessages)
	mux.HandleFunc("GET /api/messages/{userId}", b.userMessages)
	mux.HandleFunc("PATCH /api/messages/{userId}/mark-read", b.markRead)
	mux.HandleFunc("POST /api/send-message", b.sendMessage)
	mux.HandleFunc("GET /api/surveys", b.listSurveys)
	mux.HandleFunc("POST /api/careteam/signup", b.signup)
	mux.HandleFunc("POST /api/careteam/login", b.login)
	mux.HandleFunc("GET /api/careteam", b.listMembers)

	b.server = httptest.NewServer(b.intercept(mux))
	t.Cleanup(b.server.Close)
	return b
}

// URL is the base URL of the backend.
func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) intercept(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)

		b.mu.Lock()
		b.calls[pattern]++
		if h := r.Header.Values("Authorization"); len(h) > 0 {
			b.auth = append(b.auth, h[0])
		}
		failure, failing := b.failures[pattern]
		gate := b.hold[pattern]
		b.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if failing {
			writeJSON(w, failure.status, failure.body)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// Calls returns how many requests hit pattern.
func (b *Backend) Calls(pattern string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[pattern]
}

// Authorizations returns every Authorization header received, in order.
func (b *Backend) Authorizations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.auth...)
}

// Fail makes pattern answer status with body until Recover is called.
func (b *Backend) Fail(pattern string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[pattern] = injectedFailure{status: status, body: body}
}

// Recover undoes Fail.
func (b *Backend) Recover(pattern string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, pattern)
}

// Hold blocks requests to pattern until the returned release is called.
func (b *Backend) Hold(pattern string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.hold[pattern] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.hold, pattern)
			b.mu.Unlock()
			close(gate)
		})
	}
}

// SeedUsers replaces the named users.
func (b *Backend) SeedUsers(users ...domain.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]domain.User(nil), users...)
}

// SeedUserIDs replaces the list of seen user ids.
func (b *Backend) SeedUserIDs(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userIDs = append([]string(nil), ids...)
}

// SeedMessages replaces the conversation of userID.
func (b *Backend) SeedMessages(userID string, msgs ...domain.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[userID] = append([]domain.ChatMessage(nil), msgs...)
	b.unread[userID] = len(msgs)
}

// SeedSurveys replaces the survey entries.
func (b *Backend) SeedSurveys(entries ...domain.SurveyEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.surveys = append([]domain.SurveyEntry(nil), entries...)
}

// AddMember registers a care-team member able to log in with password.
func (b *Backend) AddMember(member domain.CareTeamMember, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members = append(b.members, member)
	b.passwords[strings.ToLower(member.Email)] = password
}

// Messages returns the stored conversation of userID.
func (b *Backend) Messages(userID string) []domain.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ChatMessage(nil), b.messages[userID]...)
}

func (b *Backend) listUsers(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(b.users))
}

func (b *Backend) listUserIDs(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(b.userIDs))
}

func (b *Backend) assignName(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if !decode(w, r, &user) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.users {
		if b.users[i].UserID == user.UserID {
			b.users[i].UserName = user.UserName
			writeJSON(w, http.StatusOK, domain.AssignNameResponse{Success: true, User: b.users[i]})
			return
		}
	}
	b.users = append(b.users, user)
	writeJSON(w, http.StatusOK, domain.AssignNameResponse{Success: true, User: user})
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("userId")

	b.mu.Lock()
	defer b.mu.Unlock()

	found := false
	users := b.users[:0]
	for _, u := range b.users {
		if u.UserID == id {
			found = true
			continue
		}
		users = append(users, u)
	}
	b.users = users

	ids := b.userIDs[:0]
	for _, existing := range b.userIDs {
		if existing == id {
			found = true
			continue
		}
		ids = append(ids, existing)
	}
	b.userIDs = ids
	delete(b.messages, id)

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

func (b *Backend) userMessages(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(b.messages[r.PathValue("userId")]))
}

func (b *Backend) lastMessages(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.LastMessage, 0, len(b.messages))
	for id, msgs := range b.messages {
		if len(msgs) == 0 {
			continue
		}
		last := msgs[len(msgs)-1]
		out = append(out, domain.LastMessage{
			UserID:    id,
			Role:      last.Role,
			Content:   last.Content,
			Timestamp: last.Timestamp,
			Agent:     last.Agent,
			Unread:    b.unread[id],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) markRead(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread[r.PathValue("userId")] = 0
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

func (b *Backend) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.SendMessageRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[req.To] = append(b.messages[req.To], domain.ChatMessage{
		Role:      domain.RoleAssistant,
		Content:   req.Message,
		Timestamp: time.Now().UTC(),
		Agent:     req.Agent,
	})
	writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

func (b *Backend) listSurveys(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(b.surveys))
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email := strings.ToLower(req.Email)
	if _, exists := b.passwords[email]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "care team member already exists"})
		return
	}

	now := time.Now().UTC().Truncate(time.Second)
	member := domain.CareTeamMember{
		ID:          fmt.Sprintf("m%d", len(b.members)+1),
		FullName:    req.FullName,
		DisplayName: req.DisplayName,
		Speciality:  req.Speciality,
		Email:       req.Email,
		Phone:       req.Phone,
		Token:       fmt.Sprintf("token-%d", len(b.members)+1),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.members = append(b.members, member)
	b.passwords[email] = req.Password
	writeJSON(w, http.StatusCreated, member)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email := strings.ToLower(req.Email)
	if pw, ok := b.passwords[email]; !ok || pw != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid email or password"})
		return
	}
	for _, m := range b.members {
		if strings.EqualFold(m.Email, req.Email) {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "invalid email or password"})
}

func (b *Backend) listMembers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(r.Header.Get("Authorization")) == "Bearer" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "missing token"})
		return
	}
	public := make([]domain.CareTeamMember, 0, len(b.members))
	for _, m := range b.members {
		m.Token = ""
		public = append(public, m)
	}
	writeJSON(w, http.StatusOK, public)
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
