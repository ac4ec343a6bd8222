package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"regdesk/internal/drafts"
	"regdesk/internal/platform/config"
	"regdesk/internal/platform/redis"
	"regdesk/internal/searchcache"
	"regdesk/internal/session/lockout"
	"regdesk/internal/session/revocation"
	"regdesk/pkg/platform/audit"
	"regdesk/pkg/platform/audit/publisher"
	auditkafka "regdesk/pkg/platform/audit/store/kafka"
	auditmemory "regdesk/pkg/platform/audit/store/memory"
	auditpostgres "regdesk/pkg/platform/audit/store/postgres"
)

// infra holds the storage backends. Redis, Postgres and Kafka are each
// optional; without them the desk runs on in-memory stores.
type infra struct {
	redis       *redis.Client
	db          *sql.DB
	sink        *auditkafka.Sink
	auditor     *publisher.Publisher
	revocations revocation.List
	lockouts    lockout.Store
	searchStore searchcache.Store
	draftStore  drafts.Store
	logger      *slog.Logger
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{
		revocations: revocation.NewInMemory(),
		lockouts:    lockout.NewInMemoryStore(),
		searchStore: searchcache.NewInMemoryStore(),
		draftStore:  drafts.NewInMemoryStore(),
		logger:      log,
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		in.redis = rc
		in.revocations = revocation.NewRedis(rc.Client)
		in.lockouts = lockout.NewRedisStore(rc.Client)
		in.searchStore = searchcache.NewRedisStore(rc.Client)
		in.draftStore = drafts.NewRedisStore(rc.Client)
		log.Info("using redis for sessions, lockouts, search cache and drafts")
	}

	var store audit.Store = auditmemory.NewInMemoryStore()
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		in.db = db
		pg := auditpostgres.New(db)
		if err := pg.Migrate(ctx); err != nil {
			in.Close()
			return nil, err
		}
		store = pg
		log.Info("using postgres for audit events")
	}

	opts := []publisher.Option{
		publisher.WithAsyncBuffer(cfg.AuditAsyncBuffer),
		publisher.WithLogger(log),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, auditkafka.WithTopic(cfg.Kafka.Topic))
		if err != nil {
			in.Close()
			return nil, err
		}
		if err := sink.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		in.sink = sink
		opts = append(opts, publisher.WithSink(sink))
		log.Info("streaming audit events to kafka", "topic", cfg.Kafka.Topic)
	}
	in.auditor = publisher.NewPublisher(store, opts...)
	return in, nil
}

// Close drains the audit publisher before releasing connections.
func (in *infra) Close() {
	if in.auditor != nil {
		in.auditor.Close()
	}
	if in.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := in.sink.Close(ctx); err != nil {
			in.logger.Warn("failed to flush audit sink", "error", err)
		}
	}
	if in.db != nil {
		_ = in.db.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
}
