// Package testutil builds throwaway databases, redis servers and routers for
// the package tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Gin_postgres_redis_inventory/app"
	"Gin_postgres_redis_inventory/config"
	"Gin_postgres_redis_inventory/db"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"
	"Gin_postgres_redis_inventory/routes"
	"Gin_postgres_redis_inventory/storage"
	"Gin_postgres_redis_inventory/term"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Start is the initial time of a Clock.
var Start = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

// ValidCPF passes the check digit test.
const ValidCPF = "11144477735"

var dbSeq atomic.Int64

// SetupTestDB opens a private in-memory SQLite database with the schema
// migrated. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logs.Silence()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	gdb, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	gdb.Logger = logger.Default.LogMode(logger.Silent)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

// FakeTerms is a term.Renderer that writes nothing.
type FakeTerms struct {
	mu       sync.Mutex
	Err      error
	Rendered []term.Data
	Kinds    []term.Kind
	Removed  []string
}

func (f *FakeTerms) Render(_ context.Context, kind term.Kind, d term.Data) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.Rendered = append(f.Rendered, d)
	f.Kinds = append(f.Kinds, kind)
	return filepath.Join("termos", term.FileName(kind, d)), nil
}

func (f *FakeTerms) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, path)
	return nil
}

// Clock is a settable time source for repos.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to the given day at noon UTC.
func (c *Clock) Set(year int, month time.Month, day int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// Env is a repo on a fresh database.
type Env struct {
	DB    *gorm.DB
	Repo  *db.Repo
	Terms *FakeTerms
	Clock *Clock
}

// NewEnv returns a repo with a settable clock starting at Start, UTC dates
// and a FakeTerms renderer.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	env := &Env{
		DB:    SetupTestDB(t),
		Terms: &FakeTerms{},
		Clock: &Clock{t: Start},
	}
	env.Repo = db.NewRepo(env.DB,
		db.WithClock(env.Clock.Now),
		db.WithLocation(time.UTC),
		db.WithTermRenderer(env.Terms),
	)
	return env
}

// NewTestRedis starts a miniredis server for the test.
func NewTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

// TestConfig is a configuration that needs nothing outside the test.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Address = "127.0.0.1"
	cfg.Server.HTTPPort = "0"
	cfg.Server.Timezone = "UTC"
	cfg.Database.Driver = "sqlite"
	cfg.Session.TTL = time.Hour
	cfg.Session.SeenThrottle = time.Minute
	cfg.Session.LoginAttempts = 3
	cfg.Session.LoginWindow = time.Minute
	cfg.Storage.Backend = "local"
	cfg.Storage.Dir = t.TempDir()
	cfg.Terms.OutputDir = t.TempDir()
	cfg.Bootstrap.Username = "admin"
	cfg.Bootstrap.Password = "admin123"
	return cfg
}

// SetupApp builds the whole HTTP stack on a test database and miniredis.
// Terms are rendered by the returned FakeTerms.
func SetupApp(t *testing.T) (*app.App, *FakeTerms) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := TestConfig(t)
	rdb, _ := NewTestRedis(t)
	a, err := app.New(cfg, SetupTestDB(t), rdb, storage.NewLocal(cfg.Storage.Dir))
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	terms := &FakeTerms{}
	a.Repo.Terms = terms
	app.BootstrapFirstGestor(context.Background(), a)
	routes.RegisterRoutes(a.Router, a)
	return a, terms
}

// DoRequest executes an HTTP request against the test router. body is sent
// as JSON.
func DoRequest(r http.Handler, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DoUpload sends content as the multipart "file" field.
func DoUpload(r http.Handler, method, path, filename, content string, cookie *http.Cookie) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, _ := writer.CreateFormFile("file", filename)
		io.Copy(part, strings.NewReader(content))
	}
	writer.Close()

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes a JSON object response.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// Login logs in and returns the session cookie.
func Login(t *testing.T, r http.Handler, username, password string) *http.Cookie {
	t.Helper()
	w := DoRequest(r, "POST", "/api/login", map[string]string{"username": username, "password": password}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Login as %s: expected 200, got %d: %s", username, w.Code, w.Body.String())
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == app.AppSessionCookie {
			return ck
		}
	}
	t.Fatalf("Login as %s: no session cookie", username)
	return nil
}

// SeedOperator creates an operator.
func SeedOperator(t *testing.T, repo *db.Repo, username, password string, role models.Role) *models.Operator {
	t.Helper()
	op, err := repo.CreateOperator(context.Background(), db.CreateOperatorInput{
		Username: username, Password: password, Role: role,
	})
	if err != nil {
		t.Fatalf("Failed to seed operator %s: %v", username, err)
	}
	return op
}

// PhoneFields are valid Celular fields with the given nota fiscal and IMEI.
func PhoneFields(notaFiscal, imei string) models.ItemFields {
	return models.ItemFields{
		Brand:         "Samsung",
		Model:         "A54",
		Identificador: imei,
		NotaFiscal:    notaFiscal,
		Revenda:       "Matriz",
	}
}

// SeedItem registers a Celular.
func SeedItem(t *testing.T, repo *db.Repo, notaFiscal string) *models.Item {
	t.Helper()
	it, err := repo.RegisterItem(context.Background(), db.RegisterItemInput{
		Tipo:     models.TypeCelular,
		Fields:   PhoneFields(notaFiscal, "IMEI-"+notaFiscal),
		Operator: "tester",
	})
	if err != nil {
		t.Fatalf("Failed to seed item: %v", err)
	}
	return it
}

// SeedPeripheral registers a peripheral.
func SeedPeripheral(t *testing.T, repo *db.Repo, identificador string) *models.Peripheral {
	t.Helper()
	p, err := repo.RegisterPeripheral(context.Background(), db.RegisterPeripheralInput{
		PeripheralFields: models.PeripheralFields{Tipo: "Carregador", Brand: "Samsung", Identificador: identificador},
		Operator:         "tester",
	})
	if err != nil {
		t.Fatalf("Failed to seed peripheral: %v", err)
	}
	return p
}

// IssueInput is a valid loan of itemID dated date (dd/mm/aaaa).
func IssueInput(itemID uint, date string) db.IssueInput {
	return db.IssueInput{
		ItemID:     itemID,
		Usuario:    "Maria Souza",
		CPF:        ValidCPF,
		CenterCost: "TI",
		Cargo:      "Analista",
		Date:       date,
		Operator:   "tester",
	}
}
