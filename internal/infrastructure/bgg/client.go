// Package bgg talks to the BoardGameGeek XML API v2.
package bgg

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/baechuer/club-service/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound = errors.New("bgg: game not found")
	// ErrQueued is returned when BGG answers 202: the request is queued on their
	// side and must be repeated later.
	ErrQueued = errors.New("bgg: request queued, retry later")
)

// Cache is the JSON cache the client reads through. The redis Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}

type SearchResult struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	YearPublished int    `json:"year_published,omitempty"`
}

type Game struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Image         string   `json:"image,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Description   string   `json:"description,omitempty"`
	YearPublished int      `json:"year_published,omitempty"`
	MinPlayers    int      `json:"min_players,omitempty"`
	MaxPlayers    int      `json:"max_players,omitempty"`
	PlayingTime   int      `json:"playing_time,omitempty"`
	MaxPlayTime   int      `json:"max_play_time,omitempty"`
	MinAge        int      `json:"min_age,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Mechanics     []string `json:"mechanics,omitempty"`
	Designers     []string `json:"designers,omitempty"`
	Publishers    []string `json:"publishers,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Rank          *int     `json:"rank,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
	ttl     time.Duration
	log     zerolog.Logger
}

// New builds a client for baseURL (e.g. https://boardgamegeek.com/xmlapi2).
// cache may be nil.
func New(baseURL string, httpClient *http.Client, cache Cache, ttl time.Duration, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   cache,
		ttl:     ttl,
		log:     log.With().Str("component", "bgg").Logger(),
	}
}

func searchKey(q string) string { return "bgg:search:" + strings.ToLower(q) }
func thingKey(id int64) string  { return "bgg:thing:" + strconv.FormatInt(id, 10) }

// Search returns board games whose name matches query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("bgg: empty query")
	}

	var cached []SearchResult
	if c.fromCache(ctx, searchKey(query), &cached) {
		metrics.RecordBGG("search", "cache")
		return cached, nil
	}

	q := url.Values{"query": {query}, "type": {"boardgame"}}
	var doc searchDoc
	if err := c.get(ctx, "/search?"+q.Encode(), &doc); err != nil {
		metrics.RecordBGG("search", "error")
		return nil, err
	}
	metrics.RecordBGG("search", "api")

	out := make([]SearchResult, 0, len(doc.Items))
	for _, it := range doc.Items {
		name := "Sans nom"
		if len(it.Names) > 0 && it.Names[0].Value != "" {
			name = it.Names[0].Value
		}
		out = append(out, SearchResult{ID: it.ID, Name: name, YearPublished: atoi(it.Year.Value)})
	}

	c.toCache(ctx, searchKey(query), out)
	return out, nil
}

// Thing returns the details of one game, statistics included.
func (c *Client) Thing(ctx context.Context, id int64) (*Game, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}

	var cached Game
	if c.fromCache(ctx, thingKey(id), &cached) {
		metrics.RecordBGG("thing", "cache")
		return &cached, nil
	}

	q := url.Values{"id": {strconv.FormatInt(id, 10)}, "stats": {"1"}}
	var doc thingDoc
	if err := c.get(ctx, "/thing?"+q.Encode(), &doc); err != nil {
		metrics.RecordBGG("thing", "error")
		return nil, err
	}
	if len(doc.Items) == 0 {
		metrics.RecordBGG("thing", "error")
		return nil, ErrNotFound
	}
	metrics.RecordBGG("thing", "api")

	g := doc.Items[0].toGame()
	c.toCache(ctx, thingKey(id), g)
	return g, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bgg: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		return ErrQueued
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("bgg: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := xml.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("bgg: decode: %w", err)
	}
	return nil
}

func (c *Client) fromCache(ctx context.Context, key string, dest any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("bgg cache read failed")
		return false
	}
	return ok
}

func (c *Client) toCache(ctx context.Context, key string, val any) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, val, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("bgg cache write failed")
	}
}
