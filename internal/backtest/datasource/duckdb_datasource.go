package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/internal/logger"
	"github.com/tradeview-lab/tradeview/internal/types"
	"github.com/tradeview-lab/tradeview/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource reads OHLCV bars from a CSV file through a DuckDB view.
// The CSV must carry time, symbol, open, high, low, close and volume columns;
// read_csv_auto handles types and headers.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDuckDBDataSource creates an in-memory DuckDB instance for querying bars.
func NewDuckDBDataSource(logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open database", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
	}, nil
}

// Load implements DataSource.
func (d *DuckDBDataSource) Load(path string) error {
	d.logger.Debug("Loading market data", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data`); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// CREATE VIEW does not take bound parameters; single quotes in the path
	// are escaped the SQL way.
	escaped := strings.ReplaceAll(path, "'", "''")
	query := fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM read_csv_auto('%s')`, escaped)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to load market data from %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, params := rangeQuery("SELECT COUNT(*) FROM market_data", start, end, "")

	var count int
	if err := d.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to count market data", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		query, params := rangeQuery(
			`SELECT time, symbol, open, high, low, close, volume FROM market_data`,
			start, end, " ORDER BY time ASC")

		rows, err := d.db.Query(query, params...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to query market data", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := scanBar(rows)
			if err != nil {
				yield(types.MarketData{}, err)

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "error iterating market data", err))
		}
	}
}

// ReadLastData implements DataSource.
func (d *DuckDBDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	row := d.db.QueryRow(
		`SELECT time, symbol, open, high, low, close, volume
		 FROM market_data WHERE symbol = ? ORDER BY time DESC LIMIT 1`, symbol)

	var bar types.MarketData

	err := row.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err == sql.ErrNoRows {
		return types.MarketData{}, errors.Newf(errors.ErrCodeBacktestNoData, "no market data for symbol %q", symbol)
	}

	if err != nil {
		return types.MarketData{}, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to read last bar", err)
	}

	return bar, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func rangeQuery(base string, start, end optional.Option[time.Time], suffix string) (string, []interface{}) {
	var (
		conditions []string
		params     []interface{}
	)

	if start.IsSome() {
		conditions = append(conditions, "time >= ?")
		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		conditions = append(conditions, "time <= ?")
		params = append(params, end.Unwrap())
	}

	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	return base + suffix, params
}

func scanBar(rows *sql.Rows) (types.MarketData, error) {
	var bar types.MarketData

	err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err != nil {
		return types.MarketData{}, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan bar", err)
	}

	return bar, nil
}
