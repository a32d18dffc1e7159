package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fitResume/internal/camera"
	"fitResume/internal/config"
	"fitResume/internal/database"
	"fitResume/internal/density"
	"fitResume/internal/drafts"
	"fitResume/internal/fit"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
	"fitResume/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubMeasurer 按预设返回固定内容高度：standard 溢出，compact 放得下。
type stubMeasurer struct {
	mu      sync.Mutex
	heights map[string]float64
}

func (m *stubMeasurer) Measure(doc resume.Document, preset density.Preset) (layout.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	frags := map[layout.FragmentKey]layout.Rect{
		layout.Key(layout.FragmentName, 0):    {Top: 40, Width: 700, Height: 60},
		layout.Key(layout.FragmentContact, 0): {Top: 110, Width: 700, Height: 20},
	}
	for i := range doc.Experience {
		frags[layout.Key(layout.FragmentExperienceHeader, i)] = layout.Rect{Top: 300 + float64(i)*120, Width: 700, Height: 40}
	}
	return layout.Snapshot{
		PresetID:      preset.ID,
		PageWidth:     794,
		PageHeight:    1123,
		ContentHeight: m.heights[preset.ID],
		Fragments:     frags,
	}, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.mu.Lock()
	s.uploaded[objectName] = b
	s.mu.Unlock()
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	s.mu.Unlock()
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func newTestHub(t *testing.T, store drafts.Store) *session.Hub {
	t.Helper()
	prober, err := fit.NewProber(fit.DefaultEpsilonPx)
	require.NoError(t, err)
	hub := session.NewHub(session.HubConfig{
		Ladder:           density.Standard,
		Prober:           prober,
		Camera:           camera.New(config.DefaultFit()),
		Measurer:         &stubMeasurer{heights: map[string]float64{"standard": 1300, "compact": 1000}},
		Store:            store,
		FrameInterval:    time.Millisecond,
		AutosaveDebounce: 5 * time.Millisecond,
		IdleTTL:          time.Minute,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hub.Shutdown(ctx)
	})
	return hub
}

// testServer 组装一个带内存依赖的完整路由。
type testServer struct {
	router  *gin.Engine
	deps    Deps
	storage *fakeStorage
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	store := drafts.NewMemoryStore()
	fs := newFakeStorage()
	deps := Deps{
		DB:      newTestDB(t),
		Storage: fs,
		Drafts:  store,
		Hub:     newTestHub(t, store),
		Ladder:  density.Standard,
	}
	if mutate != nil {
		mutate(&deps)
	}
	router := NewRouter(nil, nil)
	RegisterRoutes(router, deps)
	return &testServer{router: router, deps: deps, storage: fs}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func sampleDocument() resume.Document {
	doc := resume.New()
	doc.Personal.FirstName = "Ada"
	doc.Personal.LastName = "Lovelace"
	doc.Personal.Email = "ada@example.com"
	doc.Personal.Summary = "Analyst."
	return doc
}
