package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"blog-api/logging"
	"blog-api/middlewares"
	"blog-api/models"
	"blog-api/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// memPosts is an in-memory PostRepository.
type memPosts struct {
	mu     sync.Mutex
	nextID int64
	posts  []models.Post
	err    error
}

func (m *memPosts) Create(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	post.ID = m.nextID
	post.CreatedOn = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(post.ID) * time.Minute)
	m.posts = append(m.posts, *post)
	return nil
}

func (m *memPosts) List(context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Post{}, m.posts...), nil
}

func (m *memPosts) find(id int64) (int, bool) {
	for i := range m.posts {
		if m.posts[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *memPosts) Get(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	i, ok := m.find(id)
	if !ok {
		return nil, models.ErrPostNotFound
	}
	p := m.posts[i]
	return &p, nil
}

func (m *memPosts) GetOwned(ctx context.Context, id, authorID int64) (*models.Post, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != authorID {
		return nil, models.ErrPostNotFound
	}
	return p, nil
}

func (m *memPosts) Save(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(post.ID)
	if !ok {
		return models.ErrPostNotFound
	}
	m.posts[i].Title = post.Title
	m.posts[i].Body = post.Body
	return nil
}

func (m *memPosts) Delete(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(post.ID)
	if !ok {
		return models.ErrPostNotFound
	}
	m.posts = append(m.posts[:i], m.posts[i+1:]...)
	return nil
}

func (m *memPosts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

// memSessions is an in-memory SessionRepository.
type memSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]int64
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uuid.UUID]int64{}}
}

func (m *memSessions) Create(_ context.Context, userID int64, _ time.Duration) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.sessions[id] = userID
	return id, nil
}

func (m *memSessions) Lookup(_ context.Context, id uuid.UUID) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.sessions[id]
	return userID, ok, nil
}

func (m *memSessions) Revoke(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu    sync.Mutex
	users []models.User
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.ErrUserExists
		}
	}
	user.ID = int64(len(m.users) + 1)
	user.CreatedAt = time.Now()
	m.users = append(m.users, *user)
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, userID int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, userID int64, hashedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].Password = hashedPassword
			return nil
		}
	}
	return models.ErrUserNotFound
}

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	posts    *memPosts
	users    *memUsers
	sessions *memSessions
	tokens   *utils.TokenMaker
	handler  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := utils.NewTokenMaker(testSecret)
	require.NoError(t, err)

	env := &testEnv{
		posts:    &memPosts{},
		users:    &memUsers{},
		sessions: newMemSessions(),
		tokens:   tokens,
	}

	log := logging.Nop()
	router := mux.NewRouter()
	router.Use(middlewares.Authenticate(tokens, env.sessions, log))
	api := router.PathPrefix("/api/v1").Subrouter()
	(&PostHandler{Posts: env.posts, Log: log}).SetupPostRoutes(api)
	(&AuthHandler{Users: env.users, Sessions: env.sessions, Tokens: tokens, Log: log}).SetupUserRoutes(api)
	env.handler = router
	return env
}

// tokenFor opens a session for userID and returns a valid access token.
func (e *testEnv) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	sessionID, err := e.sessions.Create(context.Background(), userID, time.Hour)
	require.NoError(t, err)
	token, _, err := e.tokens.GeneratePASETO(userID, sessionID, utils.AccessToken, time.Hour)
	require.NoError(t, err)
	return token
}

func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var data []byte
	switch b := body.(type) {
	case nil:
	case string:
		data = []byte(b)
	default:
		var err error
		data, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// do sends body (nil, a raw JSON string or a value to marshal) as the
// holder of token; an empty token sends an anonymous request.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := newJSONRequest(t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(e.handler, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&v), rec.Body.String())
	return v
}
