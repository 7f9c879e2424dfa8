package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/service"
	"github.com/next-connect/next-connect/internal/session"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*domain.User{}, email: map[string]string{}}
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.email[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.email[u.Email]; ok {
		return nil, domain.ErrUserExists
	}
	clone := *u
	r.byID[u.ID] = &clone
	r.email[u.Email] = u.ID
	return u, nil
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]domain.Session
}

func (s *memSessions) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = *sess
	return nil
}

func (s *memSessions) Find(_ context.Context, sid string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[sid]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *memSessions) ClearUser(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[sid]; ok {
		sess.UserID = ""
		s.m[sid] = sess
	}
	return nil
}

func (s *memSessions) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sid)
	return nil
}

func (s *memSessions) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T) (*echo.Echo, *memUsers) {
	t.Helper()
	users := newMemUsers()
	store := &memSessions{m: map[string]domain.Session{}}
	log := zerolog.Nop()
	reg := prometheus.NewRegistry()

	e, err := NewRouter(Dependencies{
		Log: log,
		Sessions: session.NewManager(store, users, session.Options{
			Secret:            []byte("test-secret"),
			TTL:               time.Hour,
			SaveUninitialized: true,
		}, log),
		Signup:     service.NewSignupStrategy(users, bcrypt.MinCost, log),
		Signin:     service.NewSigninStrategy(users, log),
		Messages:   service.NewMessageService(nil, ""),
		DB:         okPinger{},
		Registerer: reg,
		Gatherer:   reg,
	})
	require.NoError(t, err)
	return e, users
}

func do(e *echo.Echo, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// sessionCookie returns the last session cookie the response set.
func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			found = c
		}
	}
	return found
}

func TestRouter_SignupSignoutFlow(t *testing.T) {
	e, users := newTestRouter(t)
	const creds = `{"email":"a@x.com","password":"abcde"}`

	rec := do(e, http.MethodPost, "/api/auth/signup", creds, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, rec.Body.String(), "abcde")

	stored, err := users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "abcde", stored.PasswordHash)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	setCookies := 0
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			setCookies++
		}
	}
	assert.Equal(t, 1, setCookies, "signup should set a single session cookie")

	rec = do(e, http.MethodGet, "/api/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@x.com")

	rec = do(e, http.MethodGet, "/profile", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in as a@x.com")

	rec = do(e, http.MethodGet, "/api/auth/signout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"You are now signed out."}`, rec.Body.String())
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	assert.True(t, cleared.MaxAge < 0)

	// The old cookie no longer carries an identity.
	rec = do(e, http.MethodGet, "/api/auth/me", "", cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, SigninPath, rec.Header().Get(echo.HeaderLocation))
}

func TestRouter_SignupDuplicate(t *testing.T) {
	e, _ := newTestRouter(t)
	const creds = `{"email":"a@x.com","password":"abcde"}`

	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/auth/signup", creds, nil).Code)

	rec := do(e, http.MethodPost, "/api/auth/signup", `{"email":"A@X.com","password":"other"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"That email is already taken."}`, rec.Body.String())
}

func TestRouter_SignupValidation(t *testing.T) {
	e, users := newTestRouter(t)

	rec := do(e, http.MethodPost, "/api/auth/signup", `{"email":"nope","password":"abc"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":[{"email":"email must be a valid email"},{"password":"password must be at least 5 characters"}]}`, rec.Body.String())

	_, err := users.FindByEmail(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestRouter_Signin(t *testing.T) {
	e, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"abcde"}`, nil).Code)

	wrongPassword := do(e, http.MethodPost, "/api/auth/signin", `{"email":"a@x.com","password":"wrong"}`, nil)
	unknownEmail := do(e, http.MethodPost, "/api/auth/signin", `{"email":"b@x.com","password":"abcde"}`, nil)
	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	rec := do(e, http.MethodPost, "/api/auth/signin", `{"email":"a@x.com","password":"abcde"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@x.com")
	assert.NotNil(t, sessionCookie(rec))
}

func TestRouter_Pages(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello! "+service.DefaultMessage)

	rec = do(e, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = do(e, http.MethodGet, "/api/messages", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"`+service.DefaultMessage+`"}`, rec.Body.String())
}

func TestRouter_OperationalEndpointsHaveNoSession(t *testing.T) {
	e, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec := do(e, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Nil(t, sessionCookie(rec), path)
	}
}
