package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaushal-ai-api/internal/domain/entity"
)

type fakeSnapshotStore struct {
	data    map[int64][]byte
	loadErr error
	saveErr error
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{data: make(map[int64][]byte)}
}

func (f *fakeSnapshotStore) Load(_ context.Context, userID int64) ([]byte, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	data, ok := f.data[userID]
	return data, ok, nil
}

func (f *fakeSnapshotStore) Save(_ context.Context, userID int64, snapshot []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[userID] = snapshot
	return nil
}

func (f *fakeSnapshotStore) Delete(_ context.Context, userID int64) error {
	delete(f.data, userID)
	return nil
}

func TestStoreReturnsFreshSessionWhenAbsent(t *testing.T) {
	store := NewStore(nil)

	sess := store.Get(context.Background(), 7)

	require.NotNil(t, sess)
	assert.EqualValues(t, 7, sess.UserID)
	assert.False(t, sess.HasDraft())
	assert.Equal(t, "general", sess.Prefs.Industry)
}

func TestStoreReadYourWrites(t *testing.T) {
	store := NewStore(newFakeSnapshotStore())
	ctx := context.Background()

	sess := store.Get(ctx, 7)
	sess.SetDraft(entity.NewDraft("hello world", entity.PostSourceText, "greeting"))
	store.Save(ctx, sess)

	got := store.Get(ctx, 7)
	require.True(t, got.HasDraft())
	assert.Equal(t, "hello world", got.CurrentDraft.Text)
}

func TestStoreRestoresFromSnapshot(t *testing.T) {
	snapshots := newFakeSnapshotStore()
	ctx := context.Background()

	sess := entity.NewSession(7)
	sess.SetDraft(entity.NewDraft("persisted draft", entity.PostSourcePhoto, "expo booth"))
	data, err := json.Marshal(sess)
	require.NoError(t, err)
	snapshots.data[7] = data

	// 模拟重启后的全新进程内存
	store := NewStore(snapshots)
	restored := store.Get(ctx, 7)

	require.True(t, restored.HasDraft())
	assert.Equal(t, "persisted draft", restored.CurrentDraft.Text)
	assert.Equal(t, entity.PostSourcePhoto, restored.CurrentDraft.SourceType)
}

func TestStoreSnapshotFailuresDoNotBlockSession(t *testing.T) {
	snapshots := newFakeSnapshotStore()
	snapshots.loadErr = errors.New("redis down")
	snapshots.saveErr = errors.New("redis down")
	store := NewStore(snapshots)
	ctx := context.Background()

	sess := store.Get(ctx, 7)
	require.NotNil(t, sess)

	sess.SetDraft(entity.NewDraft("still works", entity.PostSourceText, "resilience"))
	store.Save(ctx, sess)

	got := store.Get(ctx, 7)
	assert.Equal(t, "still works", got.CurrentDraft.Text)
}

func TestStoreCorruptSnapshotStartsFresh(t *testing.T) {
	snapshots := newFakeSnapshotStore()
	snapshots.data[7] = []byte("{not json")
	store := NewStore(snapshots)

	sess := store.Get(context.Background(), 7)

	require.NotNil(t, sess)
	assert.False(t, sess.HasDraft())
}

func TestStoreEvictRestoresFromSnapshotOnNextGet(t *testing.T) {
	snapshots := newFakeSnapshotStore()
	store := NewStore(snapshots)
	ctx := context.Background()

	sess := store.Get(ctx, 7)
	sess.SetDraft(entity.NewDraft("evicted draft", entity.PostSourceText, "topic"))
	store.Save(ctx, sess)

	store.Evict(7)

	got := store.Get(ctx, 7)
	require.True(t, got.HasDraft())
	assert.Equal(t, "evicted draft", got.CurrentDraft.Text)
}
