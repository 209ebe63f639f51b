package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"petidentity/internal/corrections"
	correctionservice "petidentity/internal/corrections/service"
	correctionstore "petidentity/internal/corrections/store"
	"petidentity/internal/identity"
	jwttoken "petidentity/internal/jwt_token"
	"petidentity/internal/ledger"
	"petidentity/internal/ledger/access"
	"petidentity/internal/ledger/cache"
	"petidentity/internal/medical"
	medicalservice "petidentity/internal/medical/service"
	medicalstore "petidentity/internal/medical/store"
	"petidentity/internal/notification"
	"petidentity/internal/notification/publisher"
	notificationservice "petidentity/internal/notification/service"
	notificationstore "petidentity/internal/notification/store"
	"petidentity/internal/pets"
	petservice "petidentity/internal/pets/service"
	petstore "petidentity/internal/pets/store"
	"petidentity/internal/platform/config"
	"petidentity/internal/platform/httpserver"
	"petidentity/internal/platform/kafka"
	"petidentity/internal/platform/logger"
	"petidentity/internal/platform/metrics"
	"petidentity/internal/platform/postgres"
	"petidentity/internal/platform/redis"
	"petidentity/internal/ratelimit"
	httptransport "petidentity/internal/transport/http"
	"petidentity/internal/users"
	userservice "petidentity/internal/users/service"
	userstore "petidentity/internal/users/store"
	"petidentity/pkg/platform/tx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// stores groups the persistence layer for one backend.
type stores struct {
	users         userservice.Store
	pets          petservice.Store
	medical       medicalservice.Store
	corrections   correctionStore
	notifications notificationservice.Store
	runner        tx.Runner
}

// correctionStore is satisfied by both correction store backends and serves
// the pet and correction services.
type correctionStore interface {
	correctionservice.Store
	petservice.CorrectionStore
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()
	health := map[string]httptransport.HealthCheck{}

	st, db, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		health["postgres"] = db.PingContext
	}

	rdb, err := redis.New(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		health["redis"] = rdb.Health
	}

	kc, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kc != nil {
		defer kc.Close()
		if err := kc.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("notification topic not ensured", "topic", kc.Topic(), "error", err)
		}
		health["kafka"] = kc.Health
	}

	chain, err := ledger.Dial(ctx, ledger.Config{
		RPCURL:          cfg.Ledger.RPCURL,
		PrivateKeyHex:   cfg.Ledger.PrivateKeyHex,
		ContractAddress: cfg.Ledger.ContractAddress,
		PollInterval:    cfg.Ledger.PollInterval,
		CallTimeout:     cfg.Ledger.CallTimeout,
	}, ledger.WithLogger(log), ledger.WithMetrics(ledger.NewMetrics()))
	if err != nil {
		return fmt.Errorf("connect ledger: %w", err)
	}
	log.Info("ledger connected",
		"chain_id", chain.ChainID(),
		"signer", chain.SignerAddress().Hex(),
		"contract", cfg.Ledger.ContractAddress,
	)

	prov, err := access.New(chain, cfg.Ledger.AutoProvisionChainIDs,
		access.WithLogger(log), access.WithMetrics(access.NewMetrics()))
	if err != nil {
		return err
	}
	resolverOpts := []identity.Option{identity.WithLogger(log), identity.WithMetrics(identity.NewMetrics())}
	var invalidator correctionservice.RecordInvalidator
	if rdb != nil {
		reader := cache.New(chain, rdb.Cmdable(), cfg.Redis.LedgerTTL, cache.WithLogger(log))
		resolverOpts = append(resolverOpts, identity.WithRecordReader(reader))
		invalidator = reader
	}
	resolver, err := identity.New(chain, prov, resolverOpts...)
	if err != nil {
		return err
	}

	notifyOpts := []notificationservice.Option{notificationservice.WithLogger(log)}
	if kc != nil {
		notifyOpts = append(notifyOpts, notificationservice.WithPublisher(publisher.NewKafka(kc.Client, kc.Topic())))
	}
	notifications, err := notification.NewService(st.notifications, notifyOpts...)
	if err != nil {
		return err
	}
	notifier := notification.NewNotifier(notifications, log)

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	directory, err := users.NewService(st.users, tokens,
		userservice.WithLogger(log),
		userservice.WithMetrics(m),
		userservice.WithStats(st.pets, st.medical),
	)
	if err != nil {
		return err
	}

	petSvc, err := pets.NewService(st.pets, st.runner, resolver, directory, st.corrections,
		petservice.WithLogger(log),
		petservice.WithMetrics(m),
		petservice.WithNotifier(notifier),
		petservice.WithVaccinations(medicalservice.NewVaccinations(st.medical)),
	)
	if err != nil {
		return err
	}
	medicalSvc, err := medical.NewService(st.medical, petSvc, chain, prov,
		medicalservice.WithLogger(log),
		medicalservice.WithMetrics(m),
		medicalservice.WithNotifier(notifier),
	)
	if err != nil {
		return err
	}
	correctionOpts := []correctionservice.Option{
		correctionservice.WithLogger(log),
		correctionservice.WithMetrics(m),
		correctionservice.WithNotifier(notifier),
	}
	if invalidator != nil {
		correctionOpts = append(correctionOpts, correctionservice.WithInvalidator(invalidator))
	}
	correctionSvc, err := corrections.NewService(st.corrections, st.runner, petSvc, chain, prov, correctionOpts...)
	if err != nil {
		return err
	}

	guard, err := ratelimit.New(rdb.Cmdable(),
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(m),
		ratelimit.WithConfig(ratelimit.Config{
			MaxAttempts:  cfg.Login.MaxAttempts,
			Window:       cfg.Login.Window,
			LockDuration: cfg.Login.LockDuration,
		}),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: m,
		Tokens:  tokens,
		Modules: []httptransport.Module{
			users.NewHandler(directory, log, users.WithLoginGuard(guard)),
			pets.NewHandler(petSvc, log),
			medical.NewHandler(medicalSvc, log),
			corrections.NewHandler(correctionSvc, log),
			notification.NewHandler(notifications, log),
		},
		Health: health,
	})

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	return httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, router), ln, cfg.Server.ShutdownTimeout, log)
}

// openStores returns Postgres-backed stores when a database URL is set and
// in-memory stores otherwise. The returned db is nil in the latter case.
func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, *sql.DB, error) {
	if cfg.Database.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores; multi-step writes are serialised but not rolled back on failure")
		return &stores{
			users:         userstore.NewInMemory(),
			pets:          petstore.NewInMemory(),
			medical:       medicalstore.NewInMemory(),
			corrections:   correctionstore.NewInMemory(),
			notifications: notificationstore.NewInMemory(),
			runner:        &tx.LocalRunner{},
		}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return &stores{
		users:         userstore.NewPostgres(db),
		pets:          petstore.NewPostgres(db),
		medical:       medicalstore.NewPostgres(db),
		corrections:   correctionstore.NewPostgres(db),
		notifications: notificationstore.NewPostgres(db),
		runner:        postgres.NewTxRunner(db, cfg.Database.TxTimeout),
	}, db, nil
}
