package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RecordedRequest is one request observed by RESTBackend.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

// Table describes one collection served by RESTBackend.
type Table struct {
	// Path is the collection path, e.g. "/Employee".
	Path string
	// KeyField is the JSON field holding the identifier.
	KeyField string
	// AutoIncrement assigns the next integer key on POST when KeyField is 0 or absent.
	AutoIncrement bool
	// EmptyPut makes PUT answer 204 with no body.
	EmptyPut bool
}

type table struct {
	Table
	rows   map[string]map[string]any
	nextID int
}

// LoginUser is an account accepted by the stub login endpoint.
type LoginUser struct {
	Password string
	Roles    []string
	Token    string
	// Expiration is echoed verbatim in the login response.
	Expiration string
}

// RESTBackend is an in-memory stand-in for the CRUD backend, served over httptest.
type RESTBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	tables   map[string]*table
	users    map[string]LoginUser
	requests []RecordedRequest
	failures map[string]int
	delay    time.Duration
}

// NewRESTBackend starts a stub backend and registers its shutdown with t.
func NewRESTBackend(t interface{ Cleanup(func()) }, tables ...Table) *RESTBackend {
	b := &RESTBackend{
		tables:   make(map[string]*table),
		users:    make(map[string]LoginUser),
		failures: make(map[string]int),
	}
	for _, tbl := range tables {
		b.tables[tbl.Path] = &table{Table: tbl, rows: make(map[string]map[string]any)}
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base URL of the stub.
func (b *RESTBackend) URL() string { return b.Server.URL }

// Seed inserts records into the table at path. Each record is any JSON-encodable value.
func (b *RESTBackend) Seed(path string, records ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tbl := b.tables[path]
	for _, rec := range records {
		row := toRow(rec)
		key := keyOf(row, tbl.KeyField)
		tbl.rows[key] = row
		if n, err := strconv.Atoi(key); err == nil && n > tbl.nextID {
			tbl.nextID = n
		}
	}
}

// AddUser registers an account for the login endpoint.
func (b *RESTBackend) AddUser(name string, u LoginUser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[name] = u
}

// FailNext makes the next request matching method and path answer with status.
func (b *RESTBackend) FailNext(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

// SetDelay holds every response for d before answering.
func (b *RESTBackend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Requests returns the requests observed so far.
func (b *RESTBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// CountRequests returns how many requests matched method and path.
func (b *RESTBackend) CountRequests(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Rows returns the stored rows of a table sorted by key.
func (b *RESTBackend) Rows(path string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tables[path].sorted()
}

func (b *RESTBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	delay := b.delay
	status, fail := b.failures[r.Method+" "+r.URL.EscapedPath()]
	if fail {
		delete(b.failures, r.Method+" "+r.URL.EscapedPath())
	}
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		writeJSON(w, status, map[string]any{"title": http.StatusText(status)})
		return
	}

	if strings.HasSuffix(r.URL.Path, "/login") || strings.HasSuffix(r.URL.Path, "/register") {
		b.serveAuth(w, r, body)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tbl, id, ok := b.route(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case id == "test" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "path": tbl.Path})
	case id == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, tbl.sorted())
	case id == "" && r.Method == http.MethodPost:
		b.create(w, tbl, body)
	case id != "" && r.Method == http.MethodGet:
		row, found := tbl.rows[id]
		if !found {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, row)
	case id != "" && r.Method == http.MethodPut:
		b.update(w, tbl, id, body)
	case id != "" && r.Method == http.MethodDelete:
		if _, found := tbl.rows[id]; !found {
			http.NotFound(w, r)
			return
		}
		delete(tbl.rows, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *RESTBackend) serveAuth(w http.ResponseWriter, r *http.Request, body []byte) {
	var req struct {
		UserName string `json:"userName"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": "bad request"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if strings.HasSuffix(r.URL.Path, "/register") {
		if _, exists := b.users[req.UserName]; exists {
			writeJSON(w, http.StatusConflict, map[string]any{"title": "user exists"})
			return
		}
		b.users[req.UserName] = LoginUser{Password: req.Password, Roles: []string{"user"}}
		writeJSON(w, http.StatusOK, map[string]any{"userName": req.UserName})
		return
	}

	u, ok := b.users[req.UserName]
	if !ok || u.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"title": "invalid credentials"})
		return
	}
	token := u.Token
	if token == "" {
		token = "token-" + req.UserName
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userName": req.UserName,
		"password": nil,
		"token":    map[string]any{"token": token, "expiration": u.Expiration},
		"roles":    u.Roles,
	})
}

func (b *RESTBackend) route(path string) (*table, string, bool) {
	if tbl, ok := b.tables[path]; ok {
		return tbl, "", true
	}
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return nil, "", false
	}
	tbl, ok := b.tables[path[:i]]
	if !ok {
		return nil, "", false
	}
	id, err := url.PathUnescape(path[i+1:])
	if err != nil {
		return nil, "", false
	}
	return tbl, id, true
}

func (b *RESTBackend) create(w http.ResponseWriter, tbl *table, body []byte) {
	var row map[string]any
	if err := json.Unmarshal(body, &row); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": "bad request"})
		return
	}
	key := keyOf(row, tbl.KeyField)
	if tbl.AutoIncrement && (key == "" || key == "0") {
		tbl.nextID++
		row[tbl.KeyField] = tbl.nextID
		key = strconv.Itoa(tbl.nextID)
	}
	if _, exists := tbl.rows[key]; exists {
		writeJSON(w, http.StatusConflict, map[string]any{"title": "duplicate key"})
		return
	}
	tbl.rows[key] = row
	writeJSON(w, http.StatusCreated, row)
}

func (b *RESTBackend) update(w http.ResponseWriter, tbl *table, id string, body []byte) {
	if _, found := tbl.rows[id]; !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"title": "not found"})
		return
	}
	var row map[string]any
	if err := json.Unmarshal(body, &row); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": "bad request"})
		return
	}
	row[tbl.KeyField] = tbl.rows[id][tbl.KeyField]
	tbl.rows[id] = row
	if tbl.EmptyPut {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (t *table) sorted() []map[string]any {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.rows[k])
	}
	return out
}

func toRow(rec any) map[string]any {
	raw, err := json.Marshal(rec)
	if err != nil {
		panic(fmt.Sprintf("testutil: seed record: %v", err))
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		panic(fmt.Sprintf("testutil: seed record: %v", err))
	}
	return row
}

func keyOf(row map[string]any, field string) string {
	switch v := row[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
