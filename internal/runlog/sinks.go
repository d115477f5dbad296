package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/redis"
)

// Sink receives run summaries. Record wraps apperrors.ErrSinkUnavailable
// around failures worth retrying.
type Sink interface {
	Name() string
	Record(ctx context.Context, s Summary) error
	Close() error
}

// History is a sink that can return the most recent summary of a kind.
type History interface {
	Latest(ctx context.Context, kind Kind) (*Summary, error)
}

// PostgresSink appends summaries to the run history.
//
// It owns the `harness_runs` table:
//
//	CREATE TABLE IF NOT EXISTS harness_runs (
//	    run_id      TEXT PRIMARY KEY,
//	    kind        TEXT NOT NULL,
//	    data        JSONB NOT NULL,
//	    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresSink struct {
	db     *postgres.Client
	logger *slog.Logger
}

const createRunsTable = `CREATE TABLE IF NOT EXISTS harness_runs (
	run_id      TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	data        JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// NewPostgresSink creates the history table if needed.
func NewPostgresSink(ctx context.Context, db *postgres.Client) (*PostgresSink, error) {
	if _, err := db.DB.ExecContext(ctx, createRunsTable); err != nil {
		return nil, fmt.Errorf("creating harness_runs table: %w", err)
	}
	return &PostgresSink{
		db:     db,
		logger: slog.Default().With("component", "runlog-postgres"),
	}, nil
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) Record(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	_, err = p.db.DB.ExecContext(ctx,
		`INSERT INTO harness_runs (run_id, kind, data, recorded_at) VALUES ($1, $2, $3, $4)`,
		s.RunID, string(s.Kind), data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving run summary: %w", classifyPostgres(err))
	}
	p.logger.Info("run summary saved", "run_id", s.RunID, "kind", s.Kind)
	return nil
}

// Latest loads the most recent summary of kind. Returns nil, nil when the
// history is empty.
func (p *PostgresSink) Latest(ctx context.Context, kind Kind) (*Summary, error) {
	var data []byte
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT data FROM harness_runs WHERE kind = $1 ORDER BY recorded_at DESC LIMIT 1`,
		string(kind),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshaling run summary: %w", err)
	}
	return &s, nil
}

// classifyPostgres marks everything except data and integrity errors as
// transient. A duplicate run id fails the same way on every attempt.
func classifyPostgres(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23", "42":
			return err
		}
	}
	return fmt.Errorf("%w: %w", apperrors.ErrSinkUnavailable, err)
}

func (p *PostgresSink) Close() error { return p.db.Close() }

type keyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// RedisSink keeps the latest summary per kind under prefix+kind.
type RedisSink struct {
	kv     keyValueStore
	prefix string
	ttl    time.Duration
}

func NewRedisSink(client *redis.Client, prefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{kv: client, prefix: prefix, ttl: ttl}
}

func (r *RedisSink) Name() string { return "redis" }

func (r *RedisSink) key(kind Kind) string { return r.prefix + string(kind) }

func (r *RedisSink) Record(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := r.kv.Set(ctx, r.key(s.Kind), data, r.ttl); err != nil {
		return fmt.Errorf("%w: caching run summary: %w", apperrors.ErrSinkUnavailable, err)
	}
	return nil
}

// Latest returns the cached summary of kind, or nil, nil if none is cached.
func (r *RedisSink) Latest(ctx context.Context, kind Kind) (*Summary, error) {
	raw, err := r.kv.Get(ctx, r.key(kind))
	if redis.IsNilError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached run summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshaling cached run summary: %w", err)
	}
	return &s, nil
}

func (r *RedisSink) Close() error { return r.kv.Close() }

type eventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Close() error
}

// KafkaSink publishes each summary as an event keyed by run id.
type KafkaSink struct {
	producer eventPublisher
}

func NewKafkaSink(p *kafka.Producer) *KafkaSink {
	return &KafkaSink{producer: p}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Record(ctx context.Context, s Summary) error {
	return k.producer.Publish(ctx, kafka.Event{Key: s.RunID, Value: s})
}

func (k *KafkaSink) Close() error { return k.producer.Close() }
