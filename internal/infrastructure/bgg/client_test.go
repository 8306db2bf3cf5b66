package bgg_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/baechuer/club-service/internal/infrastructure/bgg"
	"github.com/baechuer/club-service/internal/infrastructure/redis"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchXML = `<?xml version="1.0" encoding="utf-8"?>
<items total="2" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
  <item type="boardgame" id="13">
    <name type="primary" value="CATAN"/>
    <yearpublished value="1995"/>
  </item>
  <item type="boardgame" id="926">
    <name type="primary" value="Catan: Seafarers"/>
  </item>
</items>`

const thingXML = `<?xml version="1.0" encoding="utf-8"?>
<items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
  <item type="boardgame" id="13">
    <thumbnail>https://cf.geekdo-images.com/t.jpg</thumbnail>
    <image>https://cf.geekdo-images.com/i.jpg</image>
    <name type="alternate" sortindex="1" value="Die Siedler von Catan"/>
    <name type="primary" sortindex="1" value="CATAN"/>
    <description>Trade &amp;quot;wood&amp;quot;&amp;#10;build roads</description>
    <yearpublished value="1995"/>
    <minplayers value="3"/>
    <maxplayers value="4"/>
    <playingtime value="120"/>
    <minplaytime value="60"/>
    <maxplaytime value="120"/>
    <minage value="10"/>
    <link type="boardgamecategory" id="1026" value="Negotiation"/>
    <link type="boardgamemechanic" id="2072" value="Dice Rolling"/>
    <link type="boardgamedesigner" id="11" value="Klaus Teuber"/>
    <link type="boardgamepublisher" id="37" value="KOSMOS"/>
    <statistics page="1">
      <ratings>
        <average value="7.10247"/>
        <ranks>
          <rank type="subtype" id="1" name="boardgame" value="530"/>
          <rank type="family" id="5497" name="strategygames" value="410"/>
        </ranks>
      </ratings>
    </statistics>
  </item>
</items>`

func newServer(t *testing.T, hits *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "catan", r.URL.Query().Get("query"))
		assert.Equal(t, "boardgame", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(searchXML))
	})

	c := bgg.New(srv.URL, srv.Client(), nil, 0, zerolog.Nop())
	got, err := c.Search(context.Background(), "catan")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, bgg.SearchResult{ID: 13, Name: "CATAN", YearPublished: 1995}, got[0])
	assert.Equal(t, 0, got[1].YearPublished)
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	c := bgg.New("http://unused", nil, nil, 0, zerolog.Nop())
	_, err := c.Search(context.Background(), "  ")
	assert.Error(t, err)
}

func TestClient_Thing(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/thing", r.URL.Path)
		assert.Equal(t, "13", r.URL.Query().Get("id"))
		assert.Equal(t, "1", r.URL.Query().Get("stats"))
		_, _ = w.Write([]byte(thingXML))
	})

	c := bgg.New(srv.URL, srv.Client(), nil, 0, zerolog.Nop())
	g, err := c.Thing(context.Background(), 13)
	require.NoError(t, err)

	assert.Equal(t, "CATAN", g.Name)
	assert.Equal(t, 3, g.MinPlayers)
	assert.Equal(t, 4, g.MaxPlayers)
	assert.Equal(t, 120, g.PlayingTime)
	assert.Equal(t, 10, g.MinAge)
	assert.Equal(t, []string{"Negotiation"}, g.Categories)
	assert.Equal(t, []string{"Dice Rolling"}, g.Mechanics)
	assert.Equal(t, []string{"Klaus Teuber"}, g.Designers)
	assert.Equal(t, []string{"KOSMOS"}, g.Publishers)
	require.NotNil(t, g.Rating)
	assert.InDelta(t, 7.10247, *g.Rating, 0.00001)
	require.NotNil(t, g.Rank)
	assert.Equal(t, 530, *g.Rank)
	assert.Equal(t, "Trade &quot;wood&quot;&#10;build roads", g.Description)
}

func TestClient_ThingErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no item", http.StatusOK, `<items></items>`, bgg.ErrNotFound},
		{"queued", http.StatusAccepted, ``, bgg.ErrQueued},
		{"not found", http.StatusNotFound, ``, bgg.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := bgg.New(srv.URL, srv.Client(), nil, 0, zerolog.Nop())
			_, err := c.Thing(context.Background(), 13)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("server error", func(t *testing.T) {
		var hits int32
		srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		})
		c := bgg.New(srv.URL, srv.Client(), nil, 0, zerolog.Nop())
		_, err := c.Thing(context.Background(), 13)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})
}

func TestClient_ThingUnrankedHasNoRank(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<items><item id="7"><name type="primary" value="X"/>
			<statistics><ratings><average value="0"/><ranks>
			<rank id="1" name="boardgame" value="Not Ranked"/></ranks></ratings></statistics></item></items>`))
	})
	c := bgg.New(srv.URL, srv.Client(), nil, 0, zerolog.Nop())
	g, err := c.Thing(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, g.Rank)
}

func TestClient_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	var hits int32
	srv := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(thingXML))
	})
	c := bgg.New(srv.URL, srv.Client(), cache, time.Hour, zerolog.Nop())

	first, err := c.Thing(context.Background(), 13)
	require.NoError(t, err)
	second, err := c.Thing(context.Background(), 13)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("bgg:thing:13"))
}
