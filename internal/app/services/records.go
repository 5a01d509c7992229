package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/logger"
	"github.com/vmikell/urlapi/internal/app/models"
	"github.com/vmikell/urlapi/internal/app/storage"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = storage.ErrNotFound
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrListLimit        = errors.New("list limit exceeded")
)

// RecordService
type RecordService interface {
	Get(ctx context.Context, urlID string) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, body []byte) (models.Record, error)
	Modify(ctx context.Context, body []byte) (models.Record, error)
	Delete(ctx context.Context, urlID string) (models.Record, error)
}

// ListLimits bound the list operation. Zero means unbounded.
type ListLimits struct {
	MaxPages int
	MaxItems int
}

type recordService struct {
	store  storage.Storage
	limits ListLimits
}

func NewRecordService(store storage.Storage, limits ListLimits) RecordService {
	return recordService{
		store:  store,
		limits: limits,
	}
}

// Get record by urlId
func (s recordService) Get(ctx context.Context, urlID string) (models.Record, error) {
	if urlID == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrBadRequest, models.KeyField)
	}

	record, err := s.store.Get(ctx, urlID)
	if err != nil {
		return nil, classify("get", urlID, err)
	}

	return record, nil
}

// List all records following continuation tokens until the store returns none
func (s recordService) List(ctx context.Context) ([]models.Record, error) {
	result := make([]models.Record, 0)
	token := ""
	for pages := 1; ; pages++ {
		page, err := s.store.Scan(ctx, token)
		if err != nil {
			return nil, classify("scan", token, err)
		}
		result = append(result, page.Records...)
		if page.NextToken == "" {
			return result, nil
		}

		if s.limits.MaxPages > 0 && pages >= s.limits.MaxPages {
			return nil, fmt.Errorf("%w: limit of %d pages reached", ErrListLimit, s.limits.MaxPages)
		}
		if s.limits.MaxItems > 0 && len(result) >= s.limits.MaxItems {
			return nil, fmt.Errorf("%w: limit of %d records reached", ErrListLimit, s.limits.MaxItems)
		}
		if page.NextToken == token {
			return nil, fmt.Errorf("%w: scan returned the same continuation token %q", ErrStoreUnavailable, token)
		}
		token = page.NextToken
	}
}

// Save (upsert) the record decoded from body
func (s recordService) Save(ctx context.Context, body []byte) (models.Record, error) {
	var record models.Record
	if err := json.Unmarshal(body, &record); err != nil || record == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrBadRequest)
	}
	urlID := record.URLID()
	if urlID == "" {
		return nil, fmt.Errorf("%w: %s must be a non-empty string", ErrBadRequest, models.KeyField)
	}

	if err := s.store.Put(ctx, record); err != nil {
		return nil, classify("put", urlID, err)
	}

	return record, nil
}

// Modify sets one field of an existing record and returns the updated fields
func (s recordService) Modify(ctx context.Context, body []byte) (models.Record, error) {
	var req models.UpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrBadRequest)
	}
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal(req.UpdateValue, &value); err != nil {
		return nil, fmt.Errorf("%w: invalid updateValue", ErrBadRequest)
	}

	updated, err := s.store.Update(ctx, req.URLID, req.UpdateKey, value)
	if err != nil {
		return nil, classify("update", req.URLID, err)
	}

	return updated, nil
}

// Delete record and return its prior values
func (s recordService) Delete(ctx context.Context, urlID string) (models.Record, error) {
	if urlID == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrBadRequest, models.KeyField)
	}

	prior, err := s.store.Delete(ctx, urlID)
	if err != nil {
		return nil, classify("delete", urlID, err)
	}

	return prior, nil
}

func validateUpdate(req models.UpdateRequest) error {
	switch {
	case req.URLID == "":
		return fmt.Errorf("%w: %s is required", ErrBadRequest, models.KeyField)
	case req.UpdateKey == "":
		return fmt.Errorf("%w: updateKey is required", ErrBadRequest)
	case req.UpdateKey == models.KeyField:
		return fmt.Errorf("%w: %s cannot be updated", ErrBadRequest, models.KeyField)
	case strings.ContainsAny(req.UpdateKey, ".[]"):
		return fmt.Errorf("%w: updateKey must be a top-level attribute name", ErrBadRequest)
	case len(req.UpdateValue) == 0:
		return fmt.Errorf("%w: updateValue is required", ErrBadRequest)
	}

	return nil
}

// classify maps storage errors onto the service taxonomy. Unexpected errors
// are logged here and returned wrapped in ErrStoreUnavailable.
func classify(op, urlID string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s %q: %w", models.KeyField, urlID, ErrNotFound)
	case errors.Is(err, storage.ErrInvalidRecord):
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}

	logger.Log.Error("store call failed",
		zap.String("op", op),
		zap.String(models.KeyField, urlID),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %s", ErrStoreUnavailable, op, err.Error())
}
