package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stepClock starts at a fixed instant and moves one minute per call
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{now: start}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now
	c.now = c.now.Add(time.Minute)
	return t
}

// faultyStore wraps a store and fails reads or writes on demand
type faultyStore struct {
	*memory.KVStore
	failGet bool
	failSet bool
	sets    int
}

func (s *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, errors.New("disk unreadable")
	}
	return s.KVStore.Get(ctx, key)
}

func (s *faultyStore) Set(ctx context.Context, key, value string) error {
	s.sets++
	if s.failSet {
		return errors.New("disk full")
	}
	return s.KVStore.Set(ctx, key, value)
}

func newTestLog(t *testing.T, store domain.KVStore) *MoodLog {
	t.Helper()
	clock := newStepClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	return NewMoodLog(store, domain.DefaultStorageKeys(), clock, nil)
}

func TestAppendEntryPreservesOrder(t *testing.T) {
	ctx := context.Background()
	log := newTestLog(t, memory.NewKVStore())

	moods := []domain.Mood{domain.MoodHappy, domain.MoodSad, domain.MoodCalm, domain.MoodHappy}
	var appended []domain.MoodEntry
	for i, m := range moods {
		entry, err := log.AppendEntry(ctx, m, "")
		require.NoError(t, err, "append %d", i)
		appended = append(appended, entry)
	}

	listed := log.ListEntries(ctx)
	require.Len(t, listed, len(appended))
	for i := range appended {
		assert.Equal(t, appended[i].ID, listed[i].ID)
		assert.Equal(t, appended[i].Mood, listed[i].Mood)
		assert.Equal(t, appended[i].Date, listed[i].Date)
		assert.Equal(t, appended[i].Timestamp.UnixMilli(), listed[i].Timestamp.UnixMilli())
	}
}

func TestAppendEntryFields(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 20:30 UTC on Jan 1st is already Jan 2nd in UTC+9
	clock := newStepClock(time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC).In(loc))
	log := NewMoodLog(memory.NewKVStore(), domain.DefaultStorageKeys(), clock, nil)

	entry, err := log.AppendEntry(ctx, domain.MoodStressed, "  exams  ")
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2024-01-02", entry.Date)
	assert.Equal(t, "😰", entry.Emoji)
	assert.Equal(t, "exams", entry.Note)

	other, err := log.AppendEntry(ctx, domain.MoodStressed, "")
	require.NoError(t, err)
	assert.NotEqual(t, entry.ID, other.ID)
}

func TestAppendEntryRejectsUnknownMood(t *testing.T) {
	store := &faultyStore{KVStore: memory.NewKVStore()}
	log := newTestLog(t, store)

	_, err := log.AppendEntry(context.Background(), domain.Mood("ecstatic"), "")
	assert.ErrorIs(t, err, domain.ErrUnknownMood)
	assert.Zero(t, store.sets)
}

func TestListEntriesFailSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("read error", func(t *testing.T) {
		store := &faultyStore{KVStore: memory.NewKVStore(), failGet: true}
		assert.Empty(t, newTestLog(t, store).ListEntries(ctx))
	})

	t.Run("corrupt blob", func(t *testing.T) {
		store := memory.NewKVStore()
		require.NoError(t, store.Set(ctx, "mood_entries", "{not json"))
		assert.Empty(t, newTestLog(t, store).ListEntries(ctx))
	})

	t.Run("future schema", func(t *testing.T) {
		store := memory.NewKVStore()
		require.NoError(t, store.Set(ctx, "mood_entries", `{"schema_version":7,"entries":[]}`))
		assert.Empty(t, newTestLog(t, store).ListEntries(ctx))
	})

	t.Run("missing key", func(t *testing.T) {
		entries := newTestLog(t, memory.NewKVStore()).ListEntries(ctx)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})
}

func TestListEntriesReadsLegacyArray(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	legacy := `[
		{"id":"1704099600000","date":"2024-01-01","emoji":"😊","mood":"happy","note":"","timestamp":1704099600000},
		{"id":"1704103200000","date":"2024-01-01","emoji":"😢","mood":"sad","timestamp":1704103200000}
	]`
	require.NoError(t, store.Set(ctx, "mood_entries", legacy))

	log := newTestLog(t, store)
	entries := log.ListEntries(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.MoodSad, entries[1].Mood)
	assert.Equal(t, int64(1704103200000), entries[1].Timestamp.UnixMilli())

	// the next append rewrites the log in the versioned format
	_, err := log.AppendEntry(ctx, domain.MoodCalm, "")
	require.NoError(t, err)

	raw, _, err := store.Get(ctx, "mood_entries")
	require.NoError(t, err)
	assert.Contains(t, raw, `"schema_version":1`)
	assert.Len(t, log.ListEntries(ctx), 3)
}

func TestAppendEntryWriteFailure(t *testing.T) {
	store := &faultyStore{KVStore: memory.NewKVStore(), failSet: true}
	log := newTestLog(t, store)

	entry, err := log.AppendEntry(context.Background(), domain.MoodSad, "rough day")
	require.Error(t, err)

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.OpWrite, serr.Op)
	assert.Equal(t, "mood_entries", serr.Key)

	// the entry is still handed back for display
	assert.Equal(t, domain.MoodSad, entry.Mood)
	assert.Equal(t, "rough day", entry.Note)
	assert.Empty(t, log.ListEntries(context.Background()))
}

func TestAppendEntryDoesNotOverwriteCorruptLog(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{KVStore: memory.NewKVStore()}
	require.NoError(t, store.KVStore.Set(ctx, "mood_entries", "garbage"))

	_, err := newTestLog(t, store).AppendEntry(ctx, domain.MoodHappy, "")

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.OpDecode, serr.Op)
	assert.Zero(t, store.sets)

	raw, _, _ := store.KVStore.Get(ctx, "mood_entries")
	assert.Equal(t, "garbage", raw)
}

func TestAppendEntryUsesInjectedKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	keys := domain.StorageKeys{MoodEntries: "test_moods"}
	log := NewMoodLog(store, keys, newStepClock(time.Now()), nil)

	_, err := log.AppendEntry(ctx, domain.MoodNeutral, "")
	require.NoError(t, err)

	_, ok, _ := store.Get(ctx, "mood_entries")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "test_moods")
	assert.True(t, ok)
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	ctx := context.Background()
	log := newTestLog(t, memory.NewKVStore())

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := log.AppendEntry(ctx, domain.MoodCalm, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries := log.ListEntries(ctx)
	assert.Len(t, entries, writers)

	ids := make(map[string]bool, writers)
	for _, e := range entries {
		ids[e.ID] = true
	}
	assert.Len(t, ids, writers)
}

func TestAppendEntryCancelledWhileWaiting(t *testing.T) {
	log := newTestLog(t, memory.NewKVStore())
	require.NoError(t, log.writeSem.Acquire(context.Background(), 1))
	defer log.writeSem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	entry, err := log.AppendEntry(ctx, domain.MoodHappy, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.MoodHappy, entry.Mood)
}
