// Package github stores the club document in a GitHub repository through the
// contents API, the way the club web app always has.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const commitMessage = "Update data from club-service"

var ErrConflict = errors.New("github: sha conflict")

type Config struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Path    string
}

// Store keeps the blob sha of the last read or write so the next PUT replaces
// that version. A conflicting sha is refreshed and the write retried once.
type Store struct {
	cfg    Config
	client *http.Client

	mu  sync.Mutex
	sha string
}

func New(cfg Config, client *http.Client) *Store {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.github.com"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Store{cfg: cfg, client: client}
}

type contentResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// Load returns the document. A missing file is an empty document.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	doc, sha, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sha = sha
	s.mu.Unlock()
	return doc, nil
}

// Save replaces the document, last write wins.
func (s *Store) Save(ctx context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sha, err := s.put(ctx, doc, s.sha)
	if errors.Is(err, ErrConflict) {
		_, fresh, ferr := s.fetch(ctx)
		if ferr != nil {
			return ferr
		}
		sha, err = s.put(ctx, doc, fresh)
	}
	if err != nil {
		return err
	}
	s.sha = sha
	return nil
}

func (s *Store) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.cfg.BaseURL, url.PathEscape(s.cfg.Owner), url.PathEscape(s.cfg.Repo), strings.TrimLeft(s.cfg.Path, "/"))
}

func (s *Store) fetch(ctx context.Context) ([]byte, string, error) {
	u := s.contentsURL() + "?ref=" + url.QueryEscape(s.cfg.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	s.headers(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("github get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", statusError("get", resp)
	}

	var body contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("github get: decode: %w", err)
	}
	// files over 1 MB come back with encoding "none" and no content
	if body.Encoding != "base64" {
		return nil, "", fmt.Errorf("github get: unsupported content encoding %q", body.Encoding)
	}
	// the API wraps base64 content at 60 columns
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("github get: decode content: %w", err)
	}
	return raw, body.SHA, nil
}

func (s *Store) put(ctx context.Context, doc []byte, sha string) (string, error) {
	payload, err := json.Marshal(putRequest{
		Message: commitMessage,
		Content: base64.StdEncoding.EncodeToString(doc),
		Branch:  s.cfg.Branch,
		SHA:     sha,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	s.headers(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github put: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusUnprocessableEntity && sha != "":
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", statusError("put", resp)
	}

	var out putResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("github put: decode: %w", err)
	}
	return out.Content.SHA, nil
}

func (s *Store) headers(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("github %s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}
