package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"senser/common/cassandra"
	"senser/common/database"
	"senser/common/logger"
	"senser/common/mongodb"
	mqttcommon "senser/common/mqtt"
	rediscommon "senser/common/redis"
	"senser/internal/config"
	"senser/internal/events"
	httpapi "senser/internal/http"
	"senser/internal/metrics"
	"senser/internal/mqtt"
	"senser/internal/repository"
	"senser/internal/service"
	"senser/internal/store"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const serviceName = "senser"

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relational identity store
	sensorsDB, err := database.NewSqlxDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to sensors database", zap.Error(err))
	}
	defer sensorsDB.Close()

	// Time-series ledger
	ledgerDB, err := database.NewSqlxDB(&cfg.Timescale)
	if err != nil {
		log.Fatal("Failed to connect to timescale", zap.Error(err))
	}
	defer ledgerDB.Close()

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(ctx, redisClient); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rediscommon.Close(redisClient)

	mongoClient, err := mongodb.Connect(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatal("Failed to connect to mongodb", zap.Error(err))
	}
	defer mongodb.Disconnect(mongoClient)

	cqlSession, err := cassandra.NewSession(&cfg.Cassandra)
	if err != nil {
		log.Fatal("Failed to connect to cassandra", zap.Error(err))
	}
	defer cqlSession.Close()
	cql := repository.GocqlSession{Session: cqlSession}

	sensorsRepo := repository.NewPostgresSensorsRepository(sensorsDB)
	profilesRepo := repository.NewMongoProfilesRepository(mongodb.Collection(mongoClient, &cfg.Mongo))
	eventsRepo := repository.NewCassandraReadingEventsRepository(cql, cfg.Cassandra.Keyspace)
	ledgerRepo := repository.NewTimescaleReadingsRepository(ledgerDB)

	if cfg.SchemaBootstrap {
		if err := bootstrapSchema(ctx, cfg, sensorsDB, ledgerDB, cql, log); err != nil {
			log.Fatal("Schema bootstrap failed", zap.Error(err))
		}
	}
	if err := profilesRepo.EnsureGeoIndex(ctx); err != nil {
		log.Warn("Failed to ensure profile geo index", zap.Error(err))
	}

	publisher, err := newPublisher(cfg, redisClient)
	if err != nil {
		log.Fatal("Failed to create event publisher", zap.Error(err))
	}
	defer publisher.Close()

	m := metrics.New()
	kv := store.NewRedisKV(redisClient)

	sensorSvc := service.NewSensorService(sensorsRepo, profilesRepo, kv, cfg.StoreTimeout, log)
	dataSvc := service.NewSensorDataService(service.SensorDataDeps{
		Sensors:   sensorsRepo,
		Cache:     kv,
		Events:    eventsRepo,
		Ledger:    ledgerRepo,
		Publisher: publisher,
		Metrics:   m,
		Timeout:   cfg.StoreTimeout,
	}, log)
	rollupSvc := service.NewRollupService(sensorsRepo, profilesRepo, eventsRepo, cfg.StoreTimeout, log)

	router := httpapi.NewRouter(m, log)
	router.RegisterSystemRoutes(serviceName, version, m)
	router.RegisterSensorRoutes(httpapi.NewSensorHandler(sensorSvc, dataSvc, rollupSvc, log))

	if cfg.MQTT.Enabled {
		mqttClient, err := mqttcommon.NewClient(&cfg.MQTT.MQTTConfig, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()

		broker := mqtt.NewReadingBroker(dataSvc, 2*cfg.StoreTimeout, log)
		if err := broker.Start(mqttClient, cfg.MQTT.Topic, cfg.MQTT.QoS); err != nil {
			log.Fatal("Failed to subscribe to sensor readings", zap.Error(err))
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}
}

// bootstrapSchema applies the idempotent DDL of every store
func bootstrapSchema(ctx context.Context, cfg *config.Config, sensorsDB, ledgerDB *sqlx.DB, cql repository.CQLSession, log *zap.Logger) error {
	if err := repository.EnsureSensorsSchema(ctx, sensorsDB); err != nil {
		return err
	}
	if err := repository.EnsureLedgerSchema(ctx, ledgerDB); err != nil {
		return err
	}
	if err := repository.EnsureCassandraSchema(ctx, cql, cfg.Cassandra.Keyspace); err != nil {
		return err
	}
	log.Info("Schema bootstrap complete", zap.String("keyspace", cfg.Cassandra.Keyspace))
	return nil
}

func newPublisher(cfg *config.Config, redisClient *rediscommon.Client) (events.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsRedis:
		return events.NewRedisStreamPublisher(redisClient, cfg.Events.Stream), nil
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	default:
		return events.NoopPublisher{}, nil
	}
}
