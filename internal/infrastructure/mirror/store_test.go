package mirror_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baechuer/club-service/internal/infrastructure/mirror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	doc     []byte
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(context.Context) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.doc, nil
}

func (m *memStore) Save(_ context.Context, doc []byte) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = append([]byte(nil), doc...)
	return nil
}

func TestLoad_RemoteRefreshesLocal(t *testing.T) {
	remote := &memStore{doc: []byte(`{"r":1}`)}
	local := &memStore{doc: []byte(`{"old":1}`)}
	s := mirror.New(remote, local, zerolog.Nop())

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"r":1}`, string(doc))
	assert.Equal(t, `{"r":1}`, string(local.doc))
}

func TestLoad_FallsBackToLocal(t *testing.T) {
	remote := &memStore{loadErr: errors.New("offline")}
	local := &memStore{doc: []byte(`{"l":1}`)}
	s := mirror.New(remote, local, zerolog.Nop())

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"l":1}`, string(doc))
}

type datedStore struct {
	memStore
	at time.Time
}

func (d *datedStore) SavedAt(context.Context) (time.Time, error) { return d.at, nil }

func TestLoad_FallbackReportsLocalAge(t *testing.T) {
	var logs bytes.Buffer
	at := time.Date(2025, 3, 12, 18, 30, 0, 0, time.UTC)
	local := &datedStore{memStore: memStore{doc: []byte(`{"l":1}`)}, at: at}
	s := mirror.New(&memStore{loadErr: errors.New("offline")}, local, zerolog.New(&logs))

	_, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "serving local copy")
	assert.Contains(t, logs.String(), `"local_saved_at":"2025-03-12T18:30:00Z"`)
}

func TestLoad_NoCopyAnywhere(t *testing.T) {
	offline := errors.New("offline")
	s := mirror.New(&memStore{loadErr: offline}, &memStore{}, zerolog.Nop())

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, offline)
}

func TestLoad_EmptyRemoteIsEmpty(t *testing.T) {
	local := &memStore{doc: []byte(`{"l":1}`)}
	s := mirror.New(&memStore{}, local, zerolog.Nop())

	doc, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, 0, local.saves)
}

func TestSave_LocalFirstThenRemote(t *testing.T) {
	remote := &memStore{saveErr: errors.New("502")}
	local := &memStore{}
	s := mirror.New(remote, local, zerolog.Nop())

	err := s.Save(context.Background(), []byte(`{"x":1}`))
	require.Error(t, err)
	assert.Equal(t, `{"x":1}`, string(local.doc))

	remote.saveErr = nil
	require.NoError(t, s.Save(context.Background(), []byte(`{"x":2}`)))
	assert.Equal(t, `{"x":2}`, string(remote.doc))
}

func TestSave_LocalFailureDoesNotBlockRemote(t *testing.T) {
	remote := &memStore{}
	s := mirror.New(remote, &memStore{saveErr: errors.New("disk full")}, zerolog.Nop())

	require.NoError(t, s.Save(context.Background(), []byte(`{"x":1}`)))
	assert.Equal(t, `{"x":1}`, string(remote.doc))
}
