package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"VolPulse/internal/domain/models"
	pkgch "VolPulse/pkg/clickhouse"
	applogger "VolPulse/pkg/logger"
)

// CHHistoryStore persists volatility history in ClickHouse. Each Save writes
// the full snapshot; Load reads everything back ordered by timestamp. The
// table uses ReplacingMergeTree keyed on (symbol, ts) so repeated snapshots
// of the same observation collapse to one row.
type CHHistoryStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHHistoryStore {
	if table == "" {
		table = "volpulse.iv_history"
	}
	return &CHHistoryStore{client: ch, db: ch.DB(), table: table, l: l}
}

// SchemaStatements returns the idempotent DDL for the history table.
func SchemaStatements(table string) []string {
	if table == "" {
		table = "volpulse.iv_history"
	}
	db := "volpulse"
	if i := strings.IndexByte(table, '.'); i > 0 {
		db = table[:i]
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol LowCardinality(String),
            ts     DateTime64(3, 'UTC'),
            iv     Float64
        )
        ENGINE = ReplacingMergeTree
        ORDER BY (symbol, ts)
    `, table),
	}
}

func (s *CHHistoryStore) Save(ctx context.Context, history map[string][]models.HistoryPoint) error {
	start := time.Now()
	const chunkSize = 2000

	values := make([]string, 0, chunkSize)
	args := make([]interface{}, 0, chunkSize*3)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, iv) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert history batch: %w", err)
		}
		values = values[:0]
		args = args[:0]
		return nil
	}

	total := 0
	for symbol, points := range history {
		for _, p := range points {
			values = append(values, "(?, ?, ?)")
			args = append(args, symbol, p.Timestamp.UTC(), p.IV)
			total++
			if len(values) >= chunkSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if s.l != nil {
		s.l.Info("clickhouse history saved",
			applogger.String("table", s.table),
			applogger.Int("instruments", len(history)),
			applogger.Int("points", total),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHHistoryStore) Load(ctx context.Context) (map[string][]models.HistoryPoint, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT symbol, ts, iv
        FROM %s FINAL
        ORDER BY symbol ASC, ts ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.HistoryPoint)
	total := 0
	for rows.Next() {
		var (
			symbol string
			ts     time.Time
			iv     float64
		)
		if err := rows.Scan(&symbol, &ts, &iv); err != nil {
			return nil, fmt.Errorf("scan history point: %w", err)
		}
		out[symbol] = append(out[symbol], models.HistoryPoint{Timestamp: ts, IV: iv})
		total++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse history loaded",
			applogger.String("table", s.table),
			applogger.Int("instruments", len(out)),
			applogger.Int("points", total),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.client.Close()
}
