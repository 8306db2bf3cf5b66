package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/baechuer/club-service/internal/infrastructure/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContents is a minimal contents API holding one file.
type fakeContents struct {
	mu      sync.Mutex
	content []byte
	sha     string
	version int
	puts    []map[string]any
	failPut int
	// tooLarge mimics the API answer for files over 1 MB
	tooLarge bool
}

func (f *fakeContents) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		assert.Equal(t, "/repos/club/data/contents/data/data.json", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "main", r.URL.Query().Get("ref"))
			if f.content == nil {
				http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
				return
			}
			if f.tooLarge {
				_ = json.NewEncoder(w).Encode(map[string]string{"sha": f.sha, "content": "", "encoding": "none"})
				return
			}
			enc := base64.StdEncoding.EncodeToString(f.content)
			// wrap like the real API
			wrapped := ""
			for len(enc) > 60 {
				wrapped += enc[:60] + "\n"
				enc = enc[60:]
			}
			wrapped += enc
			_ = json.NewEncoder(w).Encode(map[string]string{"sha": f.sha, "content": wrapped, "encoding": "base64"})

		case http.MethodPut:
			if f.failPut > 0 {
				f.failPut--
				http.Error(w, `{"message":"Server Error"}`, http.StatusBadGateway)
				return
			}
			var body map[string]any
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.puts = append(f.puts, body)

			sha, _ := body["sha"].(string)
			if f.content != nil && sha != f.sha {
				http.Error(w, `{"message":"does not match"}`, http.StatusConflict)
				return
			}
			raw, err := base64.StdEncoding.DecodeString(body["content"].(string))
			assert.NoError(t, err)
			f.content = raw
			f.version++
			f.sha = "sha" + string(rune('0'+f.version))
			_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]string{"sha": f.sha}})
		}
	})
}

func newStore(t *testing.T, f *fakeContents) *github.Store {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return github.New(github.Config{
		BaseURL: srv.URL, Token: "tok", Owner: "club", Repo: "data", Branch: "main", Path: "data/data.json",
	}, srv.Client())
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := newStore(t, &fakeContents{})

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestStore_LoadSaveRoundTrip(t *testing.T) {
	long := `{"evenements":[],"ludotheque":[],"notes":"a fairly long document body that wraps over several base64 lines"}`
	f := &fakeContents{content: []byte(long), sha: "sha0"}
	s := newStore(t, f)

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, long, string(doc))

	require.NoError(t, s.Save(context.Background(), []byte(`{"v":1}`)))
	require.NoError(t, s.Save(context.Background(), []byte(`{"v":2}`)))

	require.Len(t, f.puts, 2)
	assert.Equal(t, "sha0", f.puts[0]["sha"])
	assert.Equal(t, "sha1", f.puts[1]["sha"])
	assert.Equal(t, "main", f.puts[0]["branch"])
	assert.JSONEq(t, `{"v":2}`, string(f.content))
}

func TestStore_ConflictRefreshesSHA(t *testing.T) {
	f := &fakeContents{content: []byte(`{}`), sha: "sha0"}
	s := newStore(t, f)

	_, err := s.Load(context.Background())
	require.NoError(t, err)

	// someone else commits in between
	f.mu.Lock()
	f.sha = "other"
	f.mu.Unlock()

	require.NoError(t, s.Save(context.Background(), []byte(`{"mine":true}`)))
	require.Len(t, f.puts, 2)
	assert.Equal(t, "other", f.puts[1]["sha"])
	assert.JSONEq(t, `{"mine":true}`, string(f.content))
}

func TestStore_ServerErrorSurfaces(t *testing.T) {
	f := &fakeContents{content: []byte(`{}`), sha: "sha0", failPut: 1}
	s := newStore(t, f)

	err := s.Save(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")

	// next attempt goes through
	_, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.NoError(t, s.Save(context.Background(), []byte(`{}`)))
}

func TestStore_CreatesFileWithoutSHA(t *testing.T) {
	f := &fakeContents{}
	s := newStore(t, f)

	_, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), []byte(`{"new":true}`)))

	require.Len(t, f.puts, 1)
	assert.NotContains(t, f.puts[0], "sha")
}

func TestStore_LargeFileIsAnError(t *testing.T) {
	f := &fakeContents{content: []byte(`{"big":true}`), sha: "sha0", tooLarge: true}
	s := newStore(t, f)

	doc, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `encoding "none"`)
	assert.Nil(t, doc)
	assert.Empty(t, f.puts)
}
