package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/glebk/moodbot/internal/domain"
)

// moodSchemaVersion is written into every persisted mood blob.
// Version 0 is the legacy bare JSON array.
const moodSchemaVersion = 1

type moodRecord struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Emoji     string `json:"emoji"`
	Mood      string `json:"mood"`
	Note      string `json:"note,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type moodBlob struct {
	SchemaVersion int          `json:"schema_version"`
	Entries       []moodRecord `json:"entries"`
}

// MoodLog is the append-only log of mood entries kept in a key-value store
type MoodLog struct {
	store  domain.KVStore
	keys   domain.StorageKeys
	clock  domain.Clock
	logger *zap.Logger

	// writeSem serializes the read-modify-write of AppendEntry
	writeSem *semaphore.Weighted
}

// NewMoodLog creates a MoodLog persisting under keys.MoodEntries
func NewMoodLog(store domain.KVStore, keys domain.StorageKeys, clock domain.Clock, logger *zap.Logger) *MoodLog {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MoodLog{
		store:    store,
		keys:     keys,
		clock:    clock,
		logger:   logger.Named("mood_log"),
		writeSem: semaphore.NewWeighted(1),
	}
}

// ListEntries returns every entry in append order.
// Unreadable or malformed data is logged and reported as an empty log.
func (l *MoodLog) ListEntries(ctx context.Context) []domain.MoodEntry {
	entries, err := l.load(ctx)
	if err != nil {
		l.logger.Error("Error getting mood entries", zap.Error(err))
		return []domain.MoodEntry{}
	}

	return entries
}

// AppendEntry records mood with an optional note at the current instant.
// On a storage failure the constructed entry is still returned together with
// a *domain.StorageError; it may not have been persisted.
func (l *MoodLog) AppendEntry(ctx context.Context, mood domain.Mood, note string) (domain.MoodEntry, error) {
	if !mood.Valid() {
		return domain.MoodEntry{}, fmt.Errorf("%w: %q", domain.ErrUnknownMood, mood)
	}

	now := l.clock.Now().Truncate(time.Millisecond)
	entry := domain.MoodEntry{
		ID:        uuid.NewString(),
		Date:      now.Format(domain.DateLayout),
		Mood:      mood,
		Emoji:     mood.Emoji(),
		Note:      strings.TrimSpace(note),
		Timestamp: now,
	}

	if err := l.writeSem.Acquire(ctx, 1); err != nil {
		return entry, fmt.Errorf("failed to acquire mood log: %w", err)
	}
	defer l.writeSem.Release(1)

	// A log that cannot be read is left alone rather than replaced by
	// a one-entry log.
	entries, err := l.load(ctx)
	if err != nil {
		l.logger.Error("Error saving mood entry", zap.String("id", entry.ID), zap.Error(err))
		return entry, err
	}

	raw, err := encodeEntries(append(entries, entry))
	if err != nil {
		serr := &domain.StorageError{Op: domain.OpEncode, Key: l.keys.MoodEntries, Err: err}
		l.logger.Error("Error saving mood entry", zap.String("id", entry.ID), zap.Error(serr))
		return entry, serr
	}

	if err := l.store.Set(ctx, l.keys.MoodEntries, raw); err != nil {
		serr := &domain.StorageError{Op: domain.OpWrite, Key: l.keys.MoodEntries, Err: err}
		l.logger.Error("Error saving mood entry", zap.String("id", entry.ID), zap.Error(serr))
		return entry, serr
	}

	l.logger.Debug("Mood entry saved",
		zap.String("id", entry.ID),
		zap.String("date", entry.Date),
		zap.String("mood", string(entry.Mood)),
		zap.Int("total", len(entries)+1))

	return entry, nil
}

// load reads and decodes the whole log
func (l *MoodLog) load(ctx context.Context) ([]domain.MoodEntry, error) {
	key := l.keys.MoodEntries

	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, &domain.StorageError{Op: domain.OpRead, Key: key, Err: err}
	}
	if !ok {
		return []domain.MoodEntry{}, nil
	}

	entries, err := decodeEntries(raw, l.clock.Now().Location())
	if err != nil {
		return nil, &domain.StorageError{Op: domain.OpDecode, Key: key, Err: err}
	}

	return entries, nil
}

func encodeEntries(entries []domain.MoodEntry) (string, error) {
	blob := moodBlob{
		SchemaVersion: moodSchemaVersion,
		Entries:       make([]moodRecord, 0, len(entries)),
	}
	for _, e := range entries {
		blob.Entries = append(blob.Entries, moodRecord{
			ID:        e.ID,
			Date:      e.Date,
			Emoji:     e.Emoji,
			Mood:      string(e.Mood),
			Note:      e.Note,
			Timestamp: e.Timestamp.UnixMilli(),
		})
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEntries(raw string, loc *time.Location) ([]domain.MoodEntry, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return []domain.MoodEntry{}, nil
	}

	var records []moodRecord
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("decode legacy mood entries: %w", err)
		}
	} else {
		var blob moodBlob
		if err := json.Unmarshal([]byte(trimmed), &blob); err != nil {
			return nil, fmt.Errorf("decode mood entries: %w", err)
		}
		if blob.SchemaVersion != moodSchemaVersion {
			return nil, fmt.Errorf("unsupported mood schema version %d", blob.SchemaVersion)
		}
		records = blob.Entries
	}

	entries := make([]domain.MoodEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, domain.MoodEntry{
			ID:        r.ID,
			Date:      r.Date,
			Mood:      domain.Mood(r.Mood),
			Emoji:     r.Emoji,
			Note:      r.Note,
			Timestamp: time.UnixMilli(r.Timestamp).In(loc),
		})
	}

	return entries, nil
}
