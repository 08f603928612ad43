package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/flower_shop/internal/models"
	"github.com/Skotchmaster/flower_shop/internal/repo"
	"github.com/Skotchmaster/flower_shop/internal/session"
	"github.com/Skotchmaster/flower_shop/internal/testutil"
)

type fakeEvents struct {
	mu     sync.Mutex
	topics []string
	events []map[string]any
}

func (f *fakeEvents) PublishEvent(_ context.Context, topic, _ string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	if m, ok := event.(map[string]any); ok {
		f.events = append(f.events, m)
	}
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e["type"].(string))
	}
	return out
}

type fakeIndex struct {
	indexed map[uuid.UUID]models.Product
	deleted []uuid.UUID
	ranked  []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]models.Product{}}
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.indexed[p.ID] = p
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uuid.UUID, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.ranked)), f.ranked, nil
}

type fakeStorage struct {
	keys []string
}

func (f *fakeStorage) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	f.keys = append(f.keys, key)
	return "https://cdn.test/" + key, nil
}

func newRepo(t *testing.T) *repo.GormRepo {
	return &repo.GormRepo{DB: testutil.NewDB(t)}
}

func newSession(t *testing.T, r *repo.GormRepo) (*session.Manager, uuid.UUID) {
	sm := &session.Manager{Repo: r, Secret: []byte("s"), TTL: time.Hour}
	sid, _, _, err := sm.Issue(context.Background())
	require.NoError(t, err)
	return sm, sid
}
