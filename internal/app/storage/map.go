package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/logger"
	"github.com/vmikell/urlapi/internal/app/models"
)

// Inmemory storage
type MapStorage struct {
	mu       sync.RWMutex
	fs       *FileStorage
	records  map[string]models.Record
	pageSize int
}

// New inmemory storage
func NewMapStorage(fs *FileStorage, pageSize int) *MapStorage {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &MapStorage{
		records:  make(map[string]models.Record),
		pageSize: pageSize,
		fs:       fs,
	}
}

// Get record by urlId
func (ms *MapStorage) Get(ctx context.Context, urlID string) (models.Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	record, ok := ms.records[urlID]
	if !ok {
		return nil, ErrNotFound
	}

	return record.Clone(), nil
}

// Put record, overwriting the existing one
func (ms *MapStorage) Put(ctx context.Context, record models.Record) error {
	urlID := record.URLID()
	if urlID == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, models.KeyField)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.records[urlID] = record.Clone()

	return nil
}

// Update single field of existing record
func (ms *MapStorage) Update(ctx context.Context, urlID, field string, value any) (models.Record, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, ok := ms.records[urlID]
	if !ok {
		return nil, ErrNotFound
	}
	record[field] = value

	return models.Record{field: value}, nil
}

// Delete record and return its prior values
func (ms *MapStorage) Delete(ctx context.Context, urlID string) (models.Record, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	record, ok := ms.records[urlID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(ms.records, urlID)

	return record, nil
}

// Scan records in urlId order. The token is the last urlId of the previous page.
func (ms *MapStorage) Scan(ctx context.Context, token string) (Page, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	keys := ms.sortedKeys()
	start := sort.SearchStrings(keys, token)
	if start < len(keys) && keys[start] == token {
		start++
	}
	end := min(start+ms.pageSize, len(keys))

	page := Page{Records: make([]models.Record, 0, end-start)}
	for _, key := range keys[start:end] {
		page.Records = append(page.Records, ms.records[key].Clone())
	}
	if end < len(keys) {
		page.NextToken = keys[end-1]
	}

	return page, nil
}

func (ms *MapStorage) sortedKeys() []string {
	keys := make([]string, 0, len(ms.records))
	for key := range ms.records {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

// Dump inmemory storage to file
func (ms *MapStorage) Dump() error {
	if ms.fs != nil {
		return ms.fs.Dump(ms)
	}

	return nil
}

// Restore inmemory storage from file
func (ms *MapStorage) Restore(records []models.Record) {
	ctx := context.TODO()
	for _, r := range records {
		if err := ms.Put(ctx, r); err != nil {
			logger.Log.Info("failed to restore", zap.Error(err))
		}
	}
}

func (ms *MapStorage) snapshot() []models.Record {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := make([]models.Record, 0, len(ms.records))
	for _, key := range ms.sortedKeys() {
		result = append(result, ms.records[key].Clone())
	}

	return result
}
