package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appavailability "stayaway/internal/app/availability"
	appbooking "stayaway/internal/app/booking"
	applistings "stayaway/internal/app/listings"
	"stayaway/internal/domain/listings"
	"stayaway/internal/domain/reservation"
	"stayaway/internal/infra/broker/kafka"
	"stayaway/internal/infra/config"
	mongostore "stayaway/internal/infra/db/mongo"
	pgstore "stayaway/internal/infra/db/postgres"
	ginserver "stayaway/internal/infra/http/gin"
	"stayaway/internal/infra/identity"
	"stayaway/internal/infra/obs"
	"stayaway/internal/infra/storage/memory"
	"stayaway/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
}

type repositories struct {
	listings     listings.Repository
	images       listings.ImageRepository
	reservations reservation.Repository
	ready        func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	repos, repoCleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		return application{}, cleanup, err
	}
	cleanups = append(cleanups, repoCleanup)

	var publisher appbooking.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			cleanup()
			return application{}, func() {}, err
		}
		cleanups = append(cleanups, func() {
			if err := producer.Close(); err != nil {
				logger.Warn("kafka close failed", "error", err)
			}
		})
		publisher = prefixedPublisher{producer: producer, topic: cfg.Topic}
		logger.Info("kafka producer ready", "brokers", cfg.KafkaBrokers)
	}

	blobs, err := buildBlobStore(cfg, logger)
	if err != nil {
		cleanup()
		return application{}, func() {}, err
	}

	bookingSvc := &appbooking.Service{
		Listings:     repos.listings,
		Reservations: repos.reservations,
		Events:       publisher,
		Logger:       logger,
	}
	listingSvc := &applistings.Service{
		Listings:     repos.listings,
		Images:       repos.images,
		Reservations: repos.reservations,
		Blobs:        blobs,
		Logger:       logger,
	}
	availabilityQuery := appavailability.Query{Reservations: repos.reservations}

	idMW := ginserver.IdentityMiddleware{Provider: identityProvider(), Logger: logger}

	return application{
		handlers: ginserver.Handlers{
			Listing:            ginserver.ListingHandler{Service: listingSvc, Logger: logger},
			Availability:       ginserver.AvailabilityHandler{Query: availabilityQuery, Booking: bookingSvc, Logger: logger},
			Reservation:        ginserver.ReservationHandler{Booking: bookingSvc, Reservations: repos.reservations, Logger: logger},
			IdentityMiddleware: idMW.Handle,
		},
		ready: repos.ready,
	}, cleanup, nil
}

func buildRepositories(cfg config.Config, logger *slog.Logger) (repositories, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return repositories{}, func() {}, err
		}
		listingRepo := mongostore.NewListingRepository(client.DB)
		imageRepo := mongostore.NewImageRepository(client.DB)
		reservationRepo := mongostore.NewReservationRepository(client.DB, logger)
		listingRepo.OnDelete(reservationRepo.DeleteByListing)
		return repositories{
			listings:     listingRepo,
			images:       imageRepo,
			reservations: reservationRepo,
			ready: func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return client.Ping(pingCtx)
			},
		}, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Warn("mongo close failed", "error", err)
			}
		}, nil

	case config.StorePostgres:
		db, err := pgstore.Open(cfg.PostgresDSN)
		if err != nil {
			return repositories{}, func() {}, err
		}
		return repositories{
			listings:     pgstore.NewListingRepository(db),
			images:       pgstore.NewImageRepository(db),
			reservations: pgstore.NewReservationRepository(db, logger),
			ready: func() error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return sqlDB.PingContext(pingCtx)
			},
		}, func() {
			sqlDB, err := db.DB()
			if err != nil {
				return
			}
			if err := sqlDB.Close(); err != nil {
				logger.Warn("postgres close failed", "error", err)
			}
		}, nil

	default:
		listingRepo := memory.NewListingRepository()
		imageRepo := memory.NewImageRepository()
		reservationRepo := memory.NewReservationRepository(logger)
		listingRepo.OnDelete(imageRepo.DeleteByListing)
		listingRepo.OnDelete(reservationRepo.DeleteByListing)
		return repositories{
			listings:     listingRepo,
			images:       imageRepo,
			reservations: reservationRepo,
			ready:        func() error { return nil },
		}, func() {}, nil
	}
}

func buildBlobStore(cfg config.Config, logger *slog.Logger) (applistings.ImageStore, error) {
	if cfg.Blobs == config.BlobsS3 {
		return s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	}
	return memory.NewBlobStore(), nil
}

// identityProvider picks the token resolver. Real deployments plug an
// external identity service in here; IDENTITY_TOKENS pins a fixed
// token-to-user table, otherwise dev maps the token straight to the
// user id.
func identityProvider() identity.Provider {
	raw := os.Getenv("IDENTITY_TOKENS")
	if raw == "" {
		return identity.Passthrough{}
	}
	static := identity.Static{}
	for _, pair := range strings.Split(raw, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || user == "" {
			continue
		}
		static[token] = identity.Principal{ID: user}
	}
	return static
}

// prefixedPublisher applies the configured topic prefix before handing
// events to the producer.
type prefixedPublisher struct {
	producer *kafka.Producer
	topic    func(string) string
}

func (p prefixedPublisher) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	return p.producer.Publish(ctx, p.topic(topic), key, payload, headers)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
