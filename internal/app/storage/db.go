package storage

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmikell/urlapi/internal/app/models"
)

// Postgres storage. Each record is one JSONB row keyed by url_id.
type DBStorage struct {
	pool     *pgxpool.Pool
	pageSize int
}

func NewDBStorage(dsn string, pageSize int) (*DBStorage, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("failed to run DB migrations: %w", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create a connection pool: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &DBStorage{
		pool:     pool,
		pageSize: pageSize,
	}, nil
}

func (db *DBStorage) Get(ctx context.Context, urlID string) (models.Record, error) {
	row := db.pool.QueryRow(
		ctx,
		`SELECT "item" FROM "urls" WHERE "url_id" = @urlID`,
		pgx.NamedArgs{"urlID": urlID},
	)

	return scanItem(row, "failed to get record")
}

func (db *DBStorage) Put(ctx context.Context, record models.Record) error {
	item, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, err.Error())
	}

	_, err = db.pool.Exec(
		ctx,
		`INSERT INTO "urls" ("url_id", "item") VALUES (@urlID, @item::jsonb)
		 ON CONFLICT ("url_id") DO UPDATE SET "item" = EXCLUDED."item"`,
		pgx.NamedArgs{"urlID": record.URLID(), "item": string(item)},
	)
	if err != nil {
		return wrapDBErr("failed to save record", err)
	}

	return nil
}

func (db *DBStorage) Update(ctx context.Context, urlID, field string, value any) (models.Record, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecord, err.Error())
	}

	row := db.pool.QueryRow(
		ctx,
		`UPDATE "urls" SET "item" = "item" || jsonb_build_object(@field::text, @value::jsonb)
		 WHERE "url_id" = @urlID
		 RETURNING jsonb_build_object(@field::text, "item" -> @field::text)`,
		pgx.NamedArgs{"urlID": urlID, "field": field, "value": string(encoded)},
	)

	return scanItem(row, "failed to update record")
}

func (db *DBStorage) Delete(ctx context.Context, urlID string) (models.Record, error) {
	row := db.pool.QueryRow(
		ctx,
		`DELETE FROM "urls" WHERE "url_id" = @urlID RETURNING "item"`,
		pgx.NamedArgs{"urlID": urlID},
	)

	return scanItem(row, "failed to delete record")
}

// Scan uses keyset pagination on url_id; the token is the last url_id returned
func (db *DBStorage) Scan(ctx context.Context, token string) (Page, error) {
	rows, err := db.pool.Query(
		ctx,
		`SELECT "url_id", "item" FROM "urls" WHERE "url_id" > @after ORDER BY "url_id" LIMIT @limit`,
		pgx.NamedArgs{"after": token, "limit": db.pageSize + 1},
	)
	if err != nil {
		return Page{}, wrapDBErr("failed to scan records", err)
	}
	defer rows.Close()

	var (
		page   Page
		lastID string
	)
	page.Records = make([]models.Record, 0, db.pageSize)
	for rows.Next() {
		var (
			urlID string
			item  []byte
		)
		if err := rows.Scan(&urlID, &item); err != nil {
			return Page{}, fmt.Errorf("failed to scan row: %w", err)
		}
		if len(page.Records) == db.pageSize {
			page.NextToken = lastID
			break
		}

		var record models.Record
		if err := json.Unmarshal(item, &record); err != nil {
			return Page{}, fmt.Errorf("failed to decode record %q: %w", urlID, err)
		}
		page.Records = append(page.Records, record)
		lastID = urlID
	}
	if err := rows.Err(); err != nil {
		return Page{}, wrapDBErr("failed to scan records", err)
	}

	return page, nil
}

func (db *DBStorage) Close() {
	db.pool.Close()
}

func scanItem(row pgx.Row, msg string) (models.Record, error) {
	var item []byte
	if err := row.Scan(&item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, wrapDBErr(msg, err)
	}

	var record models.Record
	if err := json.Unmarshal(item, &record); err != nil {
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	return record, nil
}

// wrapDBErr reports data exceptions (e.g. \u0000 in a JSONB string) as invalid input
func wrapDBErr(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsDataException(pgErr.Code) {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, pgErr.Message)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

//go:embed db/migrations/*.sql
var migrationsDir embed.FS

func runMigrations(dsn string) error {
	d, err := iofs.New(migrationsDir, "db/migrations")
	if err != nil {
		return fmt.Errorf("failed to return an iofs driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dsn)
	if err != nil {
		return fmt.Errorf("failed to get a new migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return nil
}
