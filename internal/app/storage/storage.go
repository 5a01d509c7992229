package storage

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"

	"github.com/vmikell/urlapi/internal/app/models"
)

var (
	// ErrNotFound is returned when no record has the requested urlId
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRecord is returned when the backend rejects a record or a value
	ErrInvalidRecord = errors.New("invalid record")
)

// Page is one batch of a paginated scan. An empty NextToken ends the scan.
type Page struct {
	Records   []models.Record
	NextToken string
}

// Storage is a key-value record store keyed by models.KeyField
type Storage interface {
	Get(ctx context.Context, urlID string) (models.Record, error)
	Put(ctx context.Context, record models.Record) error
	Update(ctx context.Context, urlID, field string, value any) (models.Record, error)
	Delete(ctx context.Context, urlID string) (models.Record, error)
	Scan(ctx context.Context, token string) (Page, error)
}

// DefaultPageSize is used by backends when no page size is configured
const DefaultPageSize = 100
