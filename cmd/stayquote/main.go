package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stayquote/internal/app/bootstrap"
	appoutbox "stayquote/internal/app/outbox"
	"stayquote/internal/app/quoting"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainlistings "stayquote/internal/domain/listings"
	domainpricing "stayquote/internal/domain/pricing"
	"stayquote/internal/infra/broker/kafka"
	"stayquote/internal/infra/calendarsync"
	"stayquote/internal/infra/config"
	mongostore "stayquote/internal/infra/db/mongo"
	"stayquote/internal/infra/fixtures"
	ginserver "stayquote/internal/infra/http/gin"
	"stayquote/internal/infra/ical"
	"stayquote/internal/infra/inbox"
	"stayquote/internal/infra/obs"
	"stayquote/internal/infra/outbox"
	"stayquote/internal/infra/storage/memory"
)

const (
	inboxRetention  = 7 * 24 * time.Hour
	outboxRetention = 3 * 24 * time.Hour
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("stayquote stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stayquote stopped")
}

type storage struct {
	factory   uow.UoWFactory
	listings  domainlistings.ListingRepository
	calendars domainavailability.Repository
	inbox     calendarsync.Inbox
	events    *outbox.Store
	checks    map[string]obs.ReadinessCheck
	close     func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	if cfg.StorageMode == config.StorageMongo {
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, fmt.Errorf("connect mongo: %w", err)
		}
		listings := mongostore.NewListingRepository(client.DB)
		calendars := mongostore.NewCalendarRepository(client.DB)
		st := storage{
			factory:   mongostore.Factory{DB: client.DB, ListingsRepo: listings, CalendarsRepo: calendars},
			listings:  listings,
			calendars: calendars,
			checks:    map[string]obs.ReadinessCheck{"mongo": client.Ping},
			close:     client.Close,
		}
		events, err := outbox.NewStore(ctx, client.DB, outboxRetention)
		if err != nil {
			_ = client.Close(ctx)
			return storage{}, fmt.Errorf("prepare outbox: %w", err)
		}
		st.events = events
		if cfg.CalendarSyncEnabled() {
			store, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID, inboxRetention)
			if err != nil {
				_ = client.Close(ctx)
				return storage{}, fmt.Errorf("prepare inbox: %w", err)
			}
			st.inbox = store
		}
		logger.Info("storage ready", "mode", cfg.StorageMode, "db", cfg.MongoDB)
		return st, nil
	}

	listings := memory.NewListingRepository()
	calendars := memory.NewCalendarRepository()
	logger.Info("storage ready", "mode", config.StorageMemory)
	return storage{
		factory:   memory.Factory{ListingsRepo: listings, CalendarsRepo: calendars},
		listings:  listings,
		calendars: calendars,
		inbox:     memory.NewInbox(),
		checks:    map[string]obs.ReadinessCheck{},
		close:     func(context.Context) error { return nil },
	}, nil
}

// eventOutbox picks where command events go. The durable store is used only
// when a publisher can drain it; otherwise events are relayed or dropped in
// memory right after commit.
func eventOutbox(cfg config.Config, durable *outbox.Store, publisher memory.Publisher, logger *slog.Logger) (appoutbox.Outbox, *outbox.Relay) {
	if durable == nil || publisher == nil {
		return memory.NewOutbox(publisher, cfg.KafkaEventsTopic), nil
	}
	return durable, &outbox.Relay{
		Queue:    durable,
		Producer: publisher,
		Topic:    cfg.KafkaEventsTopic,
		Interval: cfg.OutboxRelayEvery,
		Backoff:  []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		Logger:   logger,
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Error("storage close failed", "error", err)
		}
	}()

	fixturesPath := cfg.ListingsFixtures
	if fixturesPath == "" {
		fixturesPath = fixtures.DefaultPath()
	}
	if _, err := fixtures.SeedFile(ctx, fixturesPath, st.listings, st.calendars, time.Now().UTC(), logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
	}

	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		metrics = obs.NewMetrics("stayquote")
	}

	var publisher memory.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = producer
	}
	box, relay := eventOutbox(cfg, st.events, publisher, logger)

	buses, err := bootstrap.NewBuses(bootstrap.Deps{
		UoW:        st.factory,
		Outbox:     box,
		Calculator: domainpricing.NewCalculator(cfg.PricingPolicy()),
		Sessions:   quoting.NewSessionTracker(cfg.QuoteSessionTTL, nil),
		Decoder:    ical.Decoder{},
		Source:     ical.NewFetcher(cfg.ICalFetchTimeout),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	var (
		consumer  *kafka.Consumer
		debouncer *calendarsync.Debouncer
	)
	if cfg.CalendarSyncEnabled() {
		applier := &calendarsync.Applier{Commands: buses.Commands, Logger: logger, Observer: metrics}
		debouncer = calendarsync.NewDebouncer(context.WithoutCancel(ctx), cfg.CalendarDebounce, applier.Apply).
			OnDrop(func(calendarsync.Update) { metrics.UpdateCoalesced() })
		consumer, err = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, &calendarsync.Handler{
			Inbox:     st.inbox,
			Debouncer: debouncer,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		logger.Info("calendar sync enabled", "topic", cfg.KafkaCalendarTopic, "group", cfg.KafkaGroupID, "debounce", cfg.CalendarDebounce)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{Checks: st.checks}, ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries, Metrics: metrics, Logger: logger},
		Quote:        ginserver.QuoteHandler{Queries: buses.Queries, Metrics: metrics, Logger: logger},
		HostCalendar: ginserver.HostCalendarHandler{Commands: buses.Commands, Logger: logger},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if consumer != nil {
		g.Go(func() error {
			err := consumer.Run(gctx, []string{cfg.KafkaCalendarTopic})
			if err != nil && gctx.Err() == nil {
				return fmt.Errorf("calendar consumer: %w", err)
			}
			return nil
		})
	}
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && gctx.Err() == nil {
				return fmt.Errorf("outbox relay: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("calendar consumer close failed", "error", err)
			}
			debouncer.Close(shutdownCtx)
		}
		return nil
	})
	return g.Wait()
}
