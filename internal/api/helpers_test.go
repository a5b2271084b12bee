package api

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/repository"
	"alcyxob/upload-service/internal/service"
	"alcyxob/upload-service/internal/storage"
	"alcyxob/upload-service/internal/upload"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsers struct {
	mu    sync.Mutex
	order []primitive.ObjectID
	byID  map[primitive.ObjectID]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[primitive.ObjectID]domain.User)}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	m.byID[u.ID] = *u
	m.order = append(m.order, u.ID)
	return u.ID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) List(_ context.Context, skip, limit int64) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for i := skip; i < int64(len(m.order)) && i < skip+limit; i++ {
		out = append(out, m.byID[m.order[int64(len(m.order))-1-i]])
	}
	return out, nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.order)), nil
}

func (m *memUsers) deactivate(id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byID[id]
	u.Active = false
	m.byID[id] = u
}

type memRoles map[domain.UserRole]domain.Role

func (m memRoles) GetByName(_ context.Context, name domain.UserRole) (*domain.Role, error) {
	r, ok := m[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m memRoles) Upsert(_ context.Context, r *domain.Role) error {
	m[r.Name] = *r
	return nil
}

type harness struct {
	router   *gin.Engine
	users    *memUsers
	roles    memRoles
	auth     service.AuthService
	userSvc  service.UserService
	backend  *storage.InMemoryBackend
	registry *prometheus.Registry
}

var fixedNow = time.Unix(1700000000, 0)

func newHarness(t *testing.T, maxBytes int64) *harness {
	t.Helper()

	users := newMemUsers()
	roles := memRoles{}
	for _, r := range domain.DefaultRoles() {
		roles[r.Name] = r
	}

	auth, err := service.NewAuthService(users, "test-secret", time.Hour)
	require.NoError(t, err)
	userSvc := service.NewUserService(users)

	registry := prometheus.NewRegistry()
	observer, err := upload.NewPrometheusObserver("upload", registry)
	require.NoError(t, err)

	backend := storage.NewInMemoryBackend("bucket", "https://s3.test")
	client := storage.NewClient(backend, time.Second, zap.NewNop())
	folders := storage.NewFolders(map[string]string{storage.CategoryUserFile: "user-files"})
	namer := upload.NewNamer(func() time.Time { return fixedNow })

	router := gin.New()
	SetupRoutes(router, Deps{
		AuthService:     auth,
		UserService:     userSvc,
		AccessService:   service.NewAccessService(userSvc, roles),
		Uploader:        upload.NewDispatcher(client, folders, namer, 4, observer, zap.NewNop()),
		Files:           upload.NewAccess(client, folders, time.Hour, observer),
		Logger:          zap.NewNop(),
		MaxRequestBytes: maxBytes,
		Gatherer:        registry,
	})

	return &harness{
		router:   router,
		users:    users,
		roles:    roles,
		auth:     auth,
		userSvc:  userSvc,
		backend:  backend,
		registry: registry,
	}
}

// login creates a user and returns a bearer token for them.
func (h *harness) login(t *testing.T, name, email string, role domain.UserRole) (string, *domain.User) {
	t.Helper()
	user, err := h.userSvc.Create(context.Background(), service.CreateUserInput{
		Name:     name,
		Email:    email,
		Password: "correct-horse",
		Role:     role,
	})
	require.NoError(t, err)
	token, _, err := h.auth.Login(context.Background(), email, "correct-horse")
	require.NoError(t, err)
	return token, user
}

func (h *harness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

type formFile struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, target string, parts ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, p.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
