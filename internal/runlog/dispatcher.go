package runlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/resilience"
)

// Dispatcher publishes a summary to every sink concurrently. It runs after
// the computation finished and never changes a run's outcome.
type Dispatcher struct {
	sinks  []Sink
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewDispatcher(retry resilience.RetryConfig, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:  sinks,
		retry:  retry,
		logger: logger.WithComponent("runlog"),
	}
}

// Open connects every sink enabled in cfg. A sink that cannot be reached is
// logged and left out so the run itself can still complete.
func Open(ctx context.Context, cfg *config.Config) *Dispatcher {
	d := NewDispatcher(resilience.RetryConfig{})
	if cfg.Postgres.Enabled {
		if sink, err := openPostgres(ctx, cfg.Postgres); err != nil {
			d.logger.Warn("postgres sink disabled", "error", err)
		} else {
			d.sinks = append(d.sinks, sink)
		}
	}
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			d.logger.Warn("redis sink disabled", "error", fmt.Errorf("%w: %w", apperrors.ErrSinkUnavailable, err))
		} else {
			d.sinks = append(d.sinks, NewRedisSink(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL))
		}
	}
	if cfg.Kafka.Enabled {
		d.sinks = append(d.sinks, NewKafkaSink(kafka.NewProducer(cfg.Kafka)))
	}
	return d
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresSink, error) {
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSinkUnavailable, err)
	}
	sink, err := NewPostgresSink(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

// Sinks returns the names of the connected sinks.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Previous returns the most recent summary of kind held by the first sink
// that keeps history, or nil when none does. Lookups that fail are logged and
// skipped.
func (d *Dispatcher) Previous(ctx context.Context, kind Kind) *Summary {
	for _, sink := range d.sinks {
		h, ok := sink.(History)
		if !ok {
			continue
		}
		s, err := h.Latest(ctx, kind)
		if err != nil {
			d.logger.Warn("previous run lookup failed", "sink", sink.Name(), "error", err)
			continue
		}
		if s != nil {
			return s
		}
	}
	return nil
}

// Publish records s on every sink, retrying each independently. The returned
// error joins the failures of all sinks that gave up.
func (d *Dispatcher) Publish(ctx context.Context, s Summary) error {
	if len(d.sinks) == 0 {
		return nil
	}
	d.logger.Info("recording run summary", "run_id", s.RunID, "sinks", d.Sinks())
	errs := make([]error, len(d.sinks))
	var g errgroup.Group
	for i, sink := range d.sinks {
		g.Go(func() error {
			err := resilience.Retry(ctx, "record run on "+sink.Name(), d.retry, func() error {
				return sink.Record(ctx, s)
			})
			if err != nil {
				d.logger.Error("run summary not recorded", "sink", sink.Name(), "run_id", s.RunID, "error", err)
				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// Close closes every sink.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
