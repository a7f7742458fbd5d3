package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmacdonald/appliance-identifier/internal/classifier"
	"github.com/jmacdonald/appliance-identifier/internal/config"
	"github.com/jmacdonald/appliance-identifier/internal/db"
	"github.com/jmacdonald/appliance-identifier/internal/identify"
	"github.com/jmacdonald/appliance-identifier/internal/mq"
	"github.com/jmacdonald/appliance-identifier/internal/quality"
	"github.com/jmacdonald/appliance-identifier/internal/refdata"
	"github.com/jmacdonald/appliance-identifier/internal/service"
	"github.com/jmacdonald/appliance-identifier/internal/store"
	"github.com/jmacdonald/appliance-identifier/internal/store/filestore"
	"github.com/jmacdonald/appliance-identifier/internal/store/postgres"
	"github.com/jmacdonald/appliance-identifier/internal/usecase"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func startWorker(
	lc fx.Lifecycle,
	conn *mq.Connection,
	cfg *config.Config,
	logger *zap.Logger,
	processor *service.Processor,
) (*mq.Consumer, error) {
	// Consumer context cancelled on shutdown, independent of fx timeouts.
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := mq.NewConsumer(mq.ConsumerConfig{
		Connection:       conn,
		Queue:            cfg.RabbitMQ.IngestQueue,
		DLQQueue:         cfg.RabbitMQ.DLQQueue,
		Exchange:         cfg.RabbitMQ.IngestExchange,
		RoutingKey:       cfg.RabbitMQ.IngestRoutingKey,
		PrefetchCount:    cfg.RabbitMQ.PrefetchCount,
		Logger:           logger,
		MessageProcessor: processor.ProcessMessage,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			logger.Info("starting capture consumer",
				zap.String("queue", cfg.RabbitMQ.IngestQueue),
				zap.Int("prefetch", cfg.RabbitMQ.PrefetchCount))
			return consumer.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close consumer", zap.Error(err))
				return err
			}
			logger.Info("worker stopped gracefully")
			return nil
		},
	})

	return consumer, nil
}

// ProvideStore selects the record store backend from configuration. The
// file driver runs self-contained; the postgres driver builds a connection
// pool tied to the fx lifecycle.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverFile:
		fs, err := filestore.Open(cfg.Storage.FilePath, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return fs.Close()
			},
		})
		return fs, nil
	case config.StorageDriverPostgres:
		pool, err := db.NewPool(lc, logger, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ProvideReferenceData creates the built-in energy reference table.
func ProvideReferenceData() *refdata.Store {
	return refdata.NewStore()
}

// ProvideClassifierEngine creates the remote inference engine.
func ProvideClassifierEngine(cfg *config.Config, logger *zap.Logger) classifier.Engine {
	timeout := time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second
	return classifier.NewRemoteEngine(cfg.Classifier.BaseURL, timeout, logger)
}

// ProvideClassifierPort bridges the callback engine into the awaitable port.
func ProvideClassifierPort(engine classifier.Engine) classifier.Port {
	return classifier.NewBridge(engine)
}

// ProvideIdentifier creates the enrichment use case.
func ProvideIdentifier(port classifier.Port, ref *refdata.Store, logger *zap.Logger) *identify.Identifier {
	return identify.NewIdentifier(port, ref, logger)
}

// ProvideQualityGate creates the confidence gate.
func ProvideQualityGate(cfg *config.Config) *quality.Gate {
	return quality.NewGate(cfg.Classifier.MinConfidence)
}

// ProvideSaveUseCase creates the save use case.
func ProvideSaveUseCase(s store.Store) *usecase.SaveAppliance {
	return usecase.NewSaveAppliance(s)
}

// ProvideListUseCase creates the list use case.
func ProvideListUseCase(s store.Store) *usecase.ListAppliances {
	return usecase.NewListAppliances(s)
}

// ProvideDeleteUseCase creates the delete use case.
func ProvideDeleteUseCase(s store.Store) *usecase.DeleteAppliance {
	return usecase.NewDeleteAppliance(s)
}

// ProvideMQConnection creates the RabbitMQ connection.
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates the identified-event publisher.
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn, cfg.RabbitMQ.WorkerExchange, logger)
}

// ProvideProcessor creates the capture processor.
func ProvideProcessor(
	identifier *identify.Identifier,
	save *usecase.SaveAppliance,
	gate *quality.Gate,
	publisher *mq.Publisher,
	cfg *config.Config,
	logger *zap.Logger,
) *service.Processor {
	return service.NewProcessor(identifier, save, gate, publisher, cfg, logger)
}
