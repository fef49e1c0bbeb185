// Package configstore persists strategy parameter configurations in DuckDB.
package configstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/schema"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBStore is a Store backed by a DuckDB database. Pass ":memory:" as the
// path for an ephemeral store (tests), or a file path for a durable one.
// Writes are single auto-committed statements, so a stored record is always
// exactly one submitted version.
type DuckDBStore struct {
	db     *sql.DB
	schema schema.Provider
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBStore opens the database at path and creates the config table.
func NewDuckDBStore(path string, schemaProvider schema.Provider, logger *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open config database", err)
	}

	store := &DuckDBStore{
		db:     db,
		schema: schemaProvider,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

func (s *DuckDBStore) initialize() error {
	// seq gives a stable insertion order for List; ids stay opaque.
	_, err := s.db.Exec(`CREATE SEQUENCE IF NOT EXISTS config_seq`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create sequence", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS configs (
			seq BIGINT DEFAULT nextval('config_seq'),
			id TEXT PRIMARY KEY,
			strategy TEXT NOT NULL,
			name TEXT NOT NULL,
			symbol TEXT,
			description TEXT,
			params TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create configs table", err)
	}

	return nil
}

// Create implements Store.
func (s *DuckDBStore) Create(strategy, name string, params schema.Params, symbol, description optional.Option[string]) (ConfigRecord, error) {
	validated, err := s.schema.Validate(strategy, params)
	if err != nil {
		return ConfigRecord{}, err
	}

	if name == "" {
		name = defaultName(strategy, symbol)
	}

	now := time.Now().UTC()
	record := ConfigRecord{
		ID:          uuid.New().String(),
		Strategy:    strategy,
		Name:        name,
		Params:      validated,
		Symbol:      symbol,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	paramsJSON, err := json.Marshal(record.Params)
	if err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to encode params", err)
	}

	insert := s.sq.
		Insert("configs").
		Columns("id", "strategy", "name", "symbol", "description", "params", "created_at", "updated_at").
		Values(record.ID, record.Strategy, record.Name, nullable(record.Symbol),
			nullable(record.Description), string(paramsJSON), record.CreatedAt, record.UpdatedAt).
		RunWith(s.db)

	if _, err := insert.Exec(); err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert config", err)
	}

	s.logger.Info("config created",
		zap.String("id", record.ID),
		zap.String("strategy", record.Strategy),
		zap.String("name", record.Name))

	return record, nil
}

// Get implements Store.
func (s *DuckDBStore) Get(id string) (ConfigRecord, error) {
	query := s.sq.
		Select("id", "strategy", "name", "symbol", "description", "params", "created_at", "updated_at").
		From("configs").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db)

	record, err := s.scanRecord(query.QueryRow())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConfigRecord{}, errors.Newf(errors.ErrCodeNotFound, "config %s not found", id)
		}

		return ConfigRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read config", err)
	}

	return record, nil
}

// List implements Store.
func (s *DuckDBStore) List(strategy optional.Option[string]) ([]ConfigRecord, error) {
	query := s.sq.
		Select("id", "strategy", "name", "symbol", "description", "params", "created_at", "updated_at").
		From("configs").
		OrderBy("seq ASC")

	if strategy.IsSome() {
		query = query.Where(squirrel.Eq{"strategy": strategy.Unwrap()})
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list configs", err)
	}
	defer rows.Close()

	records := make([]ConfigRecord, 0)

	for rows.Next() {
		record, err := s.scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan config", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate configs", err)
	}

	return records, nil
}

// Update implements Store. The record's strategy and created_at are untouched.
func (s *DuckDBStore) Update(id, name string, params schema.Params, symbol, description optional.Option[string]) (ConfigRecord, error) {
	existing, err := s.Get(id)
	if err != nil {
		return ConfigRecord{}, err
	}

	validated, err := s.schema.Validate(existing.Strategy, params)
	if err != nil {
		return ConfigRecord{}, err
	}

	if name == "" {
		name = defaultName(existing.Strategy, symbol)
	}

	paramsJSON, err := json.Marshal(validated)
	if err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to encode params", err)
	}

	now := time.Now().UTC()

	update := s.sq.
		Update("configs").
		Set("name", name).
		Set("symbol", nullable(symbol)).
		Set("description", nullable(description)).
		Set("params", string(paramsJSON)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db)

	result, err := update.Exec()
	if err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to update config", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ConfigRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to check update result", err)
	}

	if affected == 0 {
		// Deleted between the read and the write.
		return ConfigRecord{}, errors.Newf(errors.ErrCodeNotFound, "config %s not found", id)
	}

	s.logger.Info("config updated", zap.String("id", id), zap.String("name", name))

	return ConfigRecord{
		ID:          id,
		Strategy:    existing.Strategy,
		Name:        name,
		Params:      validated,
		Symbol:      symbol,
		Description: description,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   now,
	}, nil
}

// Duplicate implements Store. The copy shares everything with the original
// except its id, name and timestamps.
func (s *DuckDBStore) Duplicate(id string, newName optional.Option[string]) (ConfigRecord, error) {
	existing, err := s.Get(id)
	if err != nil {
		return ConfigRecord{}, err
	}

	name := existing.Name + " (copy)"
	if newName.IsSome() {
		name = newName.Unwrap()
	}

	return s.Create(existing.Strategy, name, existing.Params, existing.Symbol, existing.Description)
}

// Delete implements Store. Deletion is permanent; absent ids are an error,
// not a silent success.
func (s *DuckDBStore) Delete(id string) error {
	del := s.sq.
		Delete("configs").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db)

	result, err := del.Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to delete config", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to check delete result", err)
	}

	if affected == 0 {
		return errors.Newf(errors.ErrCodeNotFound, "config %s not found", id)
	}

	s.logger.Info("config deleted", zap.String("id", id))

	return nil
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

func defaultName(strategy string, symbol optional.Option[string]) string {
	if symbol.IsSome() {
		return fmt.Sprintf("%s - %s", strategy, symbol.Unwrap())
	}

	return strategy
}

func nullable(value optional.Option[string]) any {
	if value.IsSome() {
		return value.Unwrap()
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *DuckDBStore) scanRecord(row rowScanner) (ConfigRecord, error) {
	var (
		record     ConfigRecord
		symbol     sql.NullString
		desc       sql.NullString
		paramsJSON string
	)

	err := row.Scan(&record.ID, &record.Strategy, &record.Name, &symbol, &desc,
		&paramsJSON, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return ConfigRecord{}, err
	}

	if symbol.Valid {
		record.Symbol = optional.Some(symbol.String)
	}

	if desc.Valid {
		record.Description = optional.Some(desc.String)
	}

	if err := json.Unmarshal([]byte(paramsJSON), &record.Params); err != nil {
		return ConfigRecord{}, fmt.Errorf("corrupt params payload: %w", err)
	}

	record.Params = s.canonicalParams(record.Strategy, record.Params)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()

	return record, nil
}

// canonicalParams restores the schema kind of each stored value. JSON cannot
// tell 30.0 from 30, so an integral float override would otherwise scan back
// as an int. Unknown strategies and stale keys pass through untouched.
func (s *DuckDBStore) canonicalParams(strategy string, params schema.Params) schema.Params {
	specs, err := s.schema.Describe(strategy)
	if err != nil {
		return params
	}

	for _, spec := range specs {
		stored, ok := params[spec.Key]
		if !ok {
			continue
		}

		if canonical, err := spec.Validate(stored); err == nil {
			params[spec.Key] = canonical
		}
	}

	return params
}
