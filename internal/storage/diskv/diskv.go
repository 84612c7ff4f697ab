package diskv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/peterbourgon/diskv"

	"ecobeehub/internal/auth"
	"ecobeehub/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// cacheSizeMaxBytes is the in-memory read cache size
	cacheSizeMaxBytes = 1024 * 1024

	// tokenDataKey holds the persisted token state
	tokenDataKey = "tokenData"

	// noticePrefix is the notice key prefix
	noticePrefix = "notice_"
)

// DiskvStorage implements storage.Storage on a directory of flat files
type DiskvStorage struct {
	dv  *diskv.Diskv
	now func() time.Time
}

var _ storage.Storage = (*DiskvStorage)(nil)

type noticeRecord struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a file-backed store rooted at dir
func New(dir string) (*DiskvStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}

	// Simplest transform function: put all the data files into the base dir.
	flatTransform := func(s string) []string { return []string{} }

	dv := diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
	})

	return &DiskvStorage{dv: dv, now: time.Now}, nil
}

// LoadTokens retrieves the stored token set
// Implements auth.TokenStore interface
func (s *DiskvStorage) LoadTokens(ctx context.Context) (*auth.TokenData, error) {
	if !s.dv.Has(tokenDataKey) {
		return nil, nil
	}

	b, err := s.dv.Read(tokenDataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read token state: %w", err)
	}

	return auth.UnmarshalState(b)
}

// SaveTokens replaces the stored token set
// Implements auth.TokenStore interface
func (s *DiskvStorage) SaveTokens(ctx context.Context, tokens *auth.TokenData) error {
	if tokens == nil {
		return s.ClearTokens(ctx)
	}

	b, err := auth.MarshalState(tokens)
	if err != nil {
		return err
	}

	return s.dv.Write(tokenDataKey, b)
}

// ClearTokens deletes the stored token set
// Implements auth.TokenStore interface
func (s *DiskvStorage) ClearTokens(ctx context.Context) error {
	if !s.dv.Has(tokenDataKey) {
		return nil
	}
	return s.dv.Erase(tokenDataKey)
}

// AddNotice stores a notice, replacing any notice with the same key
func (s *DiskvStorage) AddNotice(ctx context.Context, key, message string) error {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid notice key %q", key)
	}

	b, err := json.Marshal(noticeRecord{Message: message, CreatedAt: s.now().UTC()})
	if err != nil {
		return err
	}

	return s.dv.Write(noticePrefix+key, b)
}

// RemoveNotices deletes every notice
func (s *DiskvStorage) RemoveNotices(ctx context.Context) error {
	keys := s.noticeKeys()
	for _, key := range keys {
		if err := s.dv.Erase(key); err != nil {
			return fmt.Errorf("failed to remove notice %s: %w", key, err)
		}
	}
	return nil
}

// ListNotices retrieves all notices, oldest first
func (s *DiskvStorage) ListNotices(ctx context.Context) ([]*storage.Notice, error) {
	notices := []*storage.Notice{}

	for _, key := range s.noticeKeys() {
		b, err := s.dv.Read(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read notice %s: %w", key, err)
		}

		var record noticeRecord
		if err := json.Unmarshal(b, &record); err != nil {
			return nil, fmt.Errorf("failed to parse notice %s: %w", key, err)
		}

		notices = append(notices, &storage.Notice{
			Key:       strings.TrimPrefix(key, noticePrefix),
			Message:   record.Message,
			CreatedAt: record.CreatedAt,
		})
	}

	sort.SliceStable(notices, func(i, j int) bool {
		if notices[i].CreatedAt.Equal(notices[j].CreatedAt) {
			return notices[i].Key < notices[j].Key
		}
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})

	return notices, nil
}

// noticeKeys collects keys up front so erasing does not race the walk
func (s *DiskvStorage) noticeKeys() []string {
	keys := []string{}
	for key := range s.dv.KeysPrefix(noticePrefix, nil) {
		keys = append(keys, key)
	}
	return keys
}

// Close is a no-op; every write is already flushed to disk
func (s *DiskvStorage) Close() error {
	return nil
}
