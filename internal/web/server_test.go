package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/crudweb/internal/sqlite"
	"github.com/mesh-intelligence/crudweb/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupServer returns a Server over a fresh SQLite backend.
func setupServer(t *testing.T) (*Server, types.RecordTable) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { b.Detach() })

	records, err := b.Records()
	require.NoError(t, err)

	s, err := NewServer(records, discardLogger(), Options{Health: b})
	require.NoError(t, err)
	return s, records
}

func seedRecords(t *testing.T, records types.RecordTable) {
	t.Helper()
	ctx := context.Background()
	_, err := records.Insert(ctx, "Intro to Testing", "Covers unit tests & more")
	require.NoError(t, err)
	_, err = records.Insert(ctx, "Go concurrency", "Channels and testing")
	require.NoError(t, err)
}

func do(t *testing.T, h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestPagesGolden(t *testing.T) {
	s, records := setupServer(t)
	seedRecords(t, records)
	h := s.Handler()

	tests := []struct {
		golden string
		method string
		target string
		form   url.Values
		status int
	}{
		{"index_page", http.MethodGet, "/", nil, http.StatusOK},
		{"read_page", http.MethodGet, "/read/1", nil, http.StatusOK},
		{"search_page", http.MethodPost, "/allsearch", url.Values{"object": {"esting"}}, http.StatusOK},
		{"not_found_page", http.MethodGet, "/read/99", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.form)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			newGoldie(t).Assert(t, tt.golden, rec.Body.Bytes())
		})
	}
}

func TestIndex(t *testing.T) {
	s, _ := setupServer(t)

	rec := do(t, s.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No records.")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestCreate(t *testing.T) {
	s, records := setupServer(t)
	h := s.Handler()

	t.Run("form renders", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/create", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `<form action="/create" method="post">`)
	})

	t.Run("post inserts and redirects", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/create", url.Values{
			"title":       {"New <record>"},
			"description": {"body"},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		all, err := records.List(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "New <record>", all[0].Title)

		page := do(t, h, http.MethodGet, "/", nil)
		assert.Contains(t, page.Body.String(), "1-New &lt;record&gt;")
	})

	t.Run("trailing slash is accepted", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/create/", url.Values{
			"title":       {"slash"},
			"description": {""},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("missing field is a bad request", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/create", url.Values{"title": {"only"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing form field &#34;description&#34;.")
	})

	t.Run("query string does not satisfy a body field", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/create?description=x", url.Values{"title": {"t"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRead(t *testing.T) {
	s, records := setupServer(t)
	seedRecords(t, records)
	h := s.Handler()

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"existing record", "/read/2", http.StatusOK, "<p>Channels and testing</p>"},
		{"trailing slash", "/read/2/", http.StatusOK, "<h2>Go concurrency</h2>"},
		{"absent record", "/read/42", http.StatusNotFound, "Record 42 does not exist."},
		{"non-numeric id", "/read/abc", http.StatusBadRequest, "Invalid record id &#34;abc&#34;."},
		{"zero id", "/read/0", http.StatusBadRequest, "Invalid record id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestUpdate(t *testing.T) {
	s, records := setupServer(t)
	seedRecords(t, records)
	h := s.Handler()
	ctx := context.Background()

	t.Run("form is pre-filled", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/update/1", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<form action="/update/1" method="post">`)
		assert.Contains(t, body, `value="Intro to Testing"`)
		assert.Contains(t, body, `<textarea name="description">Covers unit tests &amp; more</textarea>`)
	})

	t.Run("form for absent id is not found", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/update/77", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("post overwrites and keeps id", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/update/1", url.Values{
			"title":       {`it's "quoted"`},
			"description": {"changed"},
		})
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		got, err := records.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, types.Record{ID: 1, Title: `it's "quoted"`, Description: "changed"}, got)

		other, err := records.Get(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "Go concurrency", other.Title)
	})

	t.Run("post for absent id is not found", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/update/77", url.Values{
			"title":       {"x"},
			"description": {"y"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("post with missing field is a bad request", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/update/1", url.Values{"description": {"y"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		got, err := records.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Description)
	})
}

func TestDelete(t *testing.T) {
	s, records := setupServer(t)
	seedRecords(t, records)
	h := s.Handler()
	ctx := context.Background()

	rec := do(t, h, http.MethodGet, "/delete/1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	_, err := records.Get(ctx, 1)
	assert.ErrorIs(t, err, types.ErrNotFound)

	read := do(t, h, http.MethodGet, "/read/1", nil)
	assert.Equal(t, http.StatusNotFound, read.Code)

	index := do(t, h, http.MethodGet, "/", nil)
	assert.NotContains(t, index.Body.String(), "Intro to Testing")

	t.Run("absent id still redirects", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/delete/1/", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/delete/x", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearch(t *testing.T) {
	s, records := setupServer(t)
	seedRecords(t, records)
	h := s.Handler()

	tests := []struct {
		name     string
		method   string
		target   string
		form     url.Values
		status   int
		contains []string
		excludes []string
	}{
		{
			name:     "title search",
			method:   http.MethodPost,
			target:   "/titlesearch",
			form:     url.Values{"object": {"Testing"}},
			status:   http.StatusOK,
			contains: []string{"Search title: Testing", "1-Intro to Testing"},
			excludes: []string{"2-Go concurrency"},
		},
		{
			name:     "title search is case-sensitive",
			method:   http.MethodPost,
			target:   "/titlesearch",
			form:     url.Values{"object": {"testing"}},
			status:   http.StatusOK,
			contains: []string{"No records."},
		},
		{
			name:     "description search",
			method:   http.MethodPost,
			target:   "/descriptionsearch/",
			form:     url.Values{"object": {"testing"}},
			status:   http.StatusOK,
			contains: []string{"Search description: testing", "2-Go concurrency"},
			excludes: []string{"1-Intro to Testing"},
		},
		{
			name:     "either search via query string",
			method:   http.MethodGet,
			target:   "/allsearch?object=unit",
			status:   http.StatusOK,
			contains: []string{"1-Intro to Testing"},
			excludes: []string{"2-Go concurrency"},
		},
		{
			name:     "no match",
			method:   http.MethodPost,
			target:   "/allsearch",
			form:     url.Values{"object": {"rust"}},
			status:   http.StatusOK,
			contains: []string{"No records."},
		},
		{
			name:     "missing object",
			method:   http.MethodPost,
			target:   "/allsearch",
			form:     url.Values{"other": {"x"}},
			status:   http.StatusBadRequest,
			contains: []string{"Missing form field &#34;object&#34;."},
		},
		{
			name:   "missing object on GET",
			method: http.MethodGet,
			target: "/titlesearch",
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.form)
			assert.Equal(t, tt.status, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, body, unwanted)
			}
		})
	}
}

func TestRouting(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nowhere", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/create", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPut, "/allsearch", nil).Code)
}

func TestHealth(t *testing.T) {
	t.Run("backend reachable", func(t *testing.T) {
		s, _ := setupServer(t)
		rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok\n", rec.Body.String())
	})

	t.Run("backend down", func(t *testing.T) {
		s, err := NewServer(&failingTable{}, discardLogger(), Options{Health: failingPinger{}})
		require.NoError(t, err)
		rec := do(t, s.Handler(), http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStorageFailuresAreServerErrors(t *testing.T) {
	s, err := NewServer(&failingTable{}, discardLogger(), Options{})
	require.NoError(t, err)
	h := s.Handler()

	requests := []struct {
		method string
		target string
		form   url.Values
	}{
		{http.MethodGet, "/", nil},
		{http.MethodGet, "/read/1", nil},
		{http.MethodGet, "/update/1", nil},
		{http.MethodGet, "/delete/1", nil},
		{http.MethodPost, "/create", url.Values{"title": {"t"}, "description": {"d"}}},
		{http.MethodPost, "/update/1", url.Values{"title": {"t"}, "description": {"d"}}},
		{http.MethodPost, "/titlesearch", url.Values{"object": {"t"}}},
	}
	for _, r := range requests {
		t.Run(r.method+" "+r.target, func(t *testing.T) {
			rec := do(t, h, r.method, r.target, r.form)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), errStorage.Error())
		})
	}
}

func TestNewServer_RequiresRecords(t *testing.T) {
	_, err := NewServer(nil, nil, Options{})
	assert.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultAddr, o.Addr)
	assert.Equal(t, DefaultReadTimeout, o.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, o.WriteTimeout)
	assert.Equal(t, DefaultShutdownTimeout, o.ShutdownTimeout)

	o = Options{Addr: "127.0.0.1:8080", ReadTimeout: time.Second}.withDefaults()
	assert.Equal(t, "127.0.0.1:8080", o.Addr)
	assert.Equal(t, time.Second, o.ReadTimeout)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, records := setupServer(t)
	seedRecords(t, records)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/read/1")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Intro to Testing")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

var errStorage = errors.New("disk on fire")

// failingTable fails every operation with errStorage.
type failingTable struct{}

func (failingTable) List(context.Context) ([]types.Record, error) { return nil, errStorage }
func (failingTable) Get(context.Context, int64) (types.Record, error) {
	return types.Record{}, errStorage
}
func (failingTable) Insert(context.Context, string, string) (int64, error) { return 0, errStorage }
func (failingTable) Update(context.Context, int64, string, string) error  { return errStorage }
func (failingTable) Delete(context.Context, int64) error                  { return errStorage }
func (failingTable) SearchByTitle(context.Context, string) ([]types.Record, error) {
	return nil, errStorage
}
func (failingTable) SearchByDescription(context.Context, string) ([]types.Record, error) {
	return nil, errStorage
}
func (failingTable) SearchByEither(context.Context, string) ([]types.Record, error) {
	return nil, errStorage
}
func (failingTable) Search(context.Context, types.SearchField, string) ([]types.Record, error) {
	return nil, errStorage
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errStorage }
