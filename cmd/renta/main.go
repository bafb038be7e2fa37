package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"renta/internal/app/commands"
	adminapp "renta/internal/app/handlers/admin"
	bookingapp "renta/internal/app/handlers/booking"
	catalogapp "renta/internal/app/handlers/catalog"
	favoritesapp "renta/internal/app/handlers/favorites"
	paymentapp "renta/internal/app/handlers/payment"
	reviewapp "renta/internal/app/handlers/reviews"
	"renta/internal/app/middleware"
	appoutbox "renta/internal/app/outbox"
	"renta/internal/app/policies"
	"renta/internal/app/queries"
	authsvc "renta/internal/app/services/auth"
	"renta/internal/app/uow"
	domainbooking "renta/internal/domain/booking"
	domainuser "renta/internal/domain/user"
	"renta/internal/infra/broker/kafka"
	redisstore "renta/internal/infra/cache/redis"
	"renta/internal/infra/config"
	mongodb "renta/internal/infra/db/mongo"
	"renta/internal/infra/gateway/yookassa"
	"renta/internal/infra/geo"
	ginserver "renta/internal/infra/http/gin"
	"renta/internal/infra/notify"
	"renta/internal/infra/obs"
	infraoutbox "renta/internal/infra/outbox"
	"renta/internal/infra/security"
	"renta/internal/infra/storage/memory"
	"renta/internal/infra/storage/s3"
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
	obs.RegisterMetrics()

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, worker := range app.workers {
		go worker(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	workers  []func(ctx context.Context)
	ready    func() error
	closers  []func() error
}

func (a application) close(logger *slog.Logger) {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

type storageSet struct {
	factory uow.UoWFactory
	box     appoutbox.Outbox
	idStore middleware.IdempotencyStore
	users   domainuser.Repository
	backup  ginserver.BackupRunner
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{ready: func() error { return nil }}

	uploader := buildUploader(cfg, logger)

	storage, err := buildStorage(ctx, cfg, logger, uploader, &app)
	if err != nil {
		return application{}, err
	}

	gateway := buildGateway(cfg, logger)
	geocoder := geo.New(cfg.GeocoderURL, logger)
	notifier := buildNotifier(cfg, logger)

	policy := domainbooking.PrepaymentPolicy{
		Percent:          cfg.PrepaymentPercent,
		MinimumCharge:    cfg.MinimumCharge,
		CancellationLead: cfg.CancellationLead,
	}
	encoder := appoutbox.JSONEventEncoder{}

	sessions := memory.NewSessionStore()
	authService := &authsvc.Service{
		Users:      storage.users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	registerCommandHandlers(commandBus, storage, policy, gateway, geocoder, notifier, encoder, authService, logger)

	queryBus := queries.NewInMemoryBus()
	registerQueryHandlers(queryBus, storage, policy)

	dispatcher := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(storage.idStore, nil),
		middleware.Transaction(storage.factory, nil),
		middleware.OutboxFlush(storage.box),
	)
	asker := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Catalog:        ginserver.CatalogHandler{Commands: dispatcher, Queries: asker, Uploader: uploader},
		Booking:        ginserver.BookingHandler{Commands: dispatcher, Queries: asker},
		Payment:        ginserver.PaymentHandler{Commands: dispatcher, Queries: asker, Logger: logger},
		Review:         ginserver.ReviewHandler{Commands: dispatcher, Queries: asker},
		Favorite:       ginserver.FavoriteHandler{Commands: dispatcher, Queries: asker},
		Admin:          ginserver.AdminHandler{Commands: dispatcher, Queries: asker, Backup: storage.backup, Logger: logger},
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	return app, nil
}

func buildStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, uploader s3.Uploader, app *application) (storageSet, error) {
	if cfg.StorageMode == "memory" {
		factory := memory.NewFactory()
		return storageSet{
			factory: factory,
			box:     memory.NewOutbox(),
			idStore: memory.NewIdempotencyStore(),
			users:   factory.UsersRepo,
		}, nil
	}

	client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storageSet{}, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return storageSet{}, err
	}

	factory := mongodb.NewFactory(client.DB)
	if err := factory.EnsureIndexes(ctx); err != nil {
		logger.Warn("index creation incomplete", "error", err)
	}

	var idStore middleware.IdempotencyStore
	if cfg.RedisAddr != "" {
		redisClient := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		idStore = redisstore.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
		app.closers = append(app.closers, redisClient.Close)
		logger.Info("idempotency store", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		idStore = mongodb.NewIdempotencyStore(client.DB)
		logger.Info("idempotency store", "backend", "mongo")
	}

	outboxStore := infraoutbox.NewStore(client.DB)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return storageSet{}, err
		}
		app.closers = append(app.closers, producer.Close)
		worker := &infraoutbox.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		app.workers = append(app.workers, func(ctx context.Context) {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		})
		logger.Info("outbox worker enabled", "brokers", cfg.KafkaBrokers)
	} else {
		logger.Warn("no Kafka brokers configured, outbox events stay queued")
	}

	app.ready = func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx)
	}

	return storageSet{
		factory: factory,
		box:     outboxStore,
		idStore: idStore,
		users:   factory.UsersRepo,
		backup:  &mongodb.Backup{DB: client.DB, Uploader: uploader, Logger: logger},
	}, nil
}

func buildUploader(cfg config.Config, logger *slog.Logger) s3.Uploader {
	if cfg.S3Endpoint == "" {
		return s3.NoopUploader{}
	}
	client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Warn("media storage unavailable, uploads disabled", "error", err)
		return s3.NoopUploader{}
	}
	return client
}

func buildGateway(cfg config.Config, logger *slog.Logger) *yookassa.Client {
	if cfg.YooKassaShopID == "" || cfg.YooKassaSecret == "" {
		logger.Warn("payment gateway credentials missing, checkout calls will fail")
	}
	client := yookassa.New(cfg.YooKassaShopID, cfg.YooKassaSecret, logger)
	if cfg.YooKassaBaseURL != "" {
		client.BaseURL = cfg.YooKassaBaseURL
	}
	return client
}

func buildNotifier(cfg config.Config, logger *slog.Logger) policies.Notifier {
	if cfg.SMTPHost == "" {
		logger.Info("SMTP not configured, receipts disabled")
		return nil
	}
	return notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.StaffInbox, logger)
}

func registerCommandHandlers(
	bus *commands.InMemoryBus,
	storage storageSet,
	policy domainbooking.PrepaymentPolicy,
	gateway policies.PaymentGateway,
	geocoder policies.Geocoder,
	notifier policies.Notifier,
	encoder appoutbox.EventEncoder,
	revoker adminapp.SessionRevoker,
	logger *slog.Logger,
) {
	commands.RegisterHandler(bus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: storage.factory,
		Policy:     policy,
		Outbox:     storage.box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(bus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		UoWFactory: storage.factory,
		Outbox:     storage.box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, bookingapp.CompleteBookingCommand{}.Key(), &bookingapp.CompleteBookingHandler{
		UoWFactory: storage.factory,
		Outbox:     storage.box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: storage.factory,
		Gateway:    gateway,
		Policy:     policy,
		Outbox:     storage.box,
		Encoder:    encoder,
		Logger:     logger,
	})

	commands.RegisterHandler(bus, paymentapp.StartCheckoutCommand{}.Key(), &paymentapp.StartCheckoutHandler{
		UoWFactory: storage.factory,
		Gateway:    gateway,
		Policy:     policy,
		Logger:     logger,
	})
	commands.RegisterHandler(bus, paymentapp.ProcessWebhookCommand{}.Key(), &paymentapp.ProcessWebhookHandler{
		UoWFactory: storage.factory,
		Gateway:    gateway,
		Notifier:   notifier,
		Outbox:     storage.box,
		Encoder:    encoder,
		Logger:     logger,
	})

	commands.RegisterHandler(bus, catalogapp.CreateSpaceCommand{}.Key(), &catalogapp.CreateSpaceHandler{Geocoder: geocoder, Logger: logger})
	commands.RegisterHandler(bus, catalogapp.UpdateSpaceCommand{}.Key(), &catalogapp.UpdateSpaceHandler{Geocoder: geocoder, Logger: logger})
	commands.RegisterHandler(bus, catalogapp.PublishSpaceCommand{}.Key(), &catalogapp.PublishSpaceHandler{Logger: logger})
	commands.RegisterHandler(bus, catalogapp.SuspendSpaceCommand{}.Key(), &catalogapp.SuspendSpaceHandler{Logger: logger})
	commands.RegisterHandler(bus, catalogapp.AddSpaceImageCommand{}.Key(), &catalogapp.AddSpaceImageHandler{Logger: logger})
	commands.RegisterHandler(bus, catalogapp.SetPrimaryImageCommand{}.Key(), &catalogapp.SetPrimaryImageHandler{})
	commands.RegisterHandler(bus, catalogapp.RemoveSpaceImageCommand{}.Key(), &catalogapp.RemoveSpaceImageHandler{})
	commands.RegisterHandler(bus, catalogapp.SetSpacePriceCommand{}.Key(), &catalogapp.SetSpacePriceHandler{Logger: logger})
	commands.RegisterHandler(bus, catalogapp.DeactivateSpacePriceCommand{}.Key(), &catalogapp.DeactivateSpacePriceHandler{})

	commands.RegisterHandler(bus, reviewapp.SubmitReviewCommand{}.Key(), &reviewapp.SubmitReviewHandler{UoWFactory: storage.factory, Logger: logger})
	commands.RegisterHandler(bus, reviewapp.ModerateReviewCommand{}.Key(), &reviewapp.ModerateReviewHandler{Logger: logger})

	commands.RegisterHandler(bus, favoritesapp.ToggleFavoriteCommand{}.Key(), &favoritesapp.ToggleFavoriteHandler{Logger: logger})

	commands.RegisterHandler(bus, adminapp.SetUserBlockedCommand{}.Key(), &adminapp.SetUserBlockedHandler{
		Sessions: revoker,
		Logger:   logger,
	})
	commands.RegisterHandler(bus, adminapp.AssignRolesCommand{}.Key(), &adminapp.AssignRolesHandler{Logger: logger})
}

func registerQueryHandlers(bus *queries.InMemoryBus, storage storageSet, policy domainbooking.PrepaymentPolicy) {
	queries.RegisterHandler(bus, bookingapp.QuoteBookingQuery{}.Key(), &bookingapp.QuoteBookingHandler{UoWFactory: storage.factory, Policy: policy})
	queries.RegisterHandler(bus, bookingapp.TenantBookingsQuery{}.Key(), &bookingapp.TenantBookingsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(bus, bookingapp.SpaceBookingsQuery{}.Key(), &bookingapp.SpaceBookingsHandler{UoWFactory: storage.factory})

	queries.RegisterHandler(bus, catalogapp.SearchCatalogQuery{}.Key(), &catalogapp.SearchCatalogHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(bus, catalogapp.OwnerSpacesQuery{}.Key(), &catalogapp.OwnerSpacesHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(bus, catalogapp.GetSpaceQuery{}.Key(), &catalogapp.GetSpaceHandler{UoWFactory: storage.factory})

	queries.RegisterHandler(bus, paymentapp.BookingTransactionsQuery{}.Key(), &paymentapp.BookingTransactionsHandler{UoWFactory: storage.factory})

	queries.RegisterHandler(bus, reviewapp.SpaceReviewsQuery{}.Key(), &reviewapp.SpaceReviewsHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(bus, reviewapp.PendingReviewsQuery{}.Key(), &reviewapp.PendingReviewsHandler{UoWFactory: storage.factory})

	queries.RegisterHandler(bus, favoritesapp.ListFavoritesQuery{}.Key(), &favoritesapp.ListFavoritesHandler{UoWFactory: storage.factory})

	queries.RegisterHandler(bus, adminapp.AuditLogQuery{}.Key(), &adminapp.AuditLogHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(bus, adminapp.OverviewReportQuery{}.Key(), &adminapp.OverviewReportHandler{UoWFactory: storage.factory})
	queries.RegisterHandler(bus, adminapp.ListUsersQuery{}.Key(), &adminapp.ListUsersHandler{UoWFactory: storage.factory})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
