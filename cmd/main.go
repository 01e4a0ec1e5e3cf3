package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabrio-backend/internal/api"
	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/api/routes"
	v1 "collabrio-backend/internal/api/routes/v1"
	"collabrio-backend/internal/config"
	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/services"

	log "github.com/sirupsen/logrus"
)

type stores struct {
	boards repo.BoardRepoInterface
	tasks  repo.TaskRepoInterface
	users  repo.UserRepoInterface
	close  func() error
}

func openStores(ctx context.Context, env config.Env) (*stores, error) {
	if env.StoreBackend == "datastore" {
		ds, err := repo.NewDatastoreClient(ctx, env.DatastoreProjectID)
		if err != nil {
			return nil, err
		}
		log.WithField("project", env.DatastoreProjectID).Info("Using Cloud Datastore")
		return &stores{boards: ds.Boards(), tasks: ds.Tasks(), users: ds.Users(), close: ds.Close}, nil
	}

	// Connect to database
	if err := config.ConnectDB(env); err != nil {
		return nil, err
	}
	// Run migrations
	if err := config.MigrateAllModels(config.DB, env.DBAutoMigrate); err != nil {
		return nil, err
	}
	return &stores{
		boards: repo.NewBoardRepository(config.DB),
		tasks:  repo.NewTaskRepository(config.DB),
		users:  repo.NewUserRepository(config.DB),
		close:  config.CloseDB,
	}, nil
}

func newMailer(env config.Env) libraries.Mailer {
	if env.EmailJSServiceID == "" {
		log.Warn("EMAILJS_SERVICE_ID not set, invitation emails are only logged")
		return libraries.LogMailer{}
	}
	return libraries.NewEmailJSClient(libraries.EmailJSConfig{
		APIURL:     env.EmailJSAPIURL,
		ServiceID:  env.EmailJSServiceID,
		TemplateID: env.EmailJSTemplateID,
		PublicKey:  env.EmailJSPublicKey,
		PrivateKey: env.EmailJSPrivateKey,
		Timeout:    env.EmailTimeout,
	})
}

// newPublisher fans board updates out through Redis when configured so every
// instance's websocket clients see them; otherwise straight to the local hub.
func newPublisher(ctx context.Context, env config.Env, hub *libraries.Hub) (services.UpdatePublisher, func()) {
	if env.RedisURL == "" {
		return hub, func() {}
	}
	rc, err := libraries.NewRedisClient(env.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure redis")
	}
	fanout := libraries.NewRedisFanout(rc, env.BoardUpdatesChannel)
	go func() {
		if err := fanout.Subscribe(ctx, nil, hub.PublishToBoard); err != nil {
			log.WithError(err).Error("Board update subscription stopped")
		}
	}()
	log.WithField("channel", env.BoardUpdatesChannel).Info("Board updates fan out through redis")
	return fanout, func() { _ = rc.Close() }
}

func main() {
	// Load environment variables
	env := config.Load()
	config.InitLogging(env.LogLevel, env.LogFormat)

	if env.AuthJWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, env)
	if err != nil {
		log.WithError(err).Fatal("Failed to open stores")
	}
	defer st.close()

	blobs, err := libraries.NewBlobStore(ctx, libraries.BlobConfig{
		Type:           libraries.BlobStoreType(env.BlobStorageType),
		Dir:            env.BlobDir,
		PublicURL:      env.BlobPublicURL,
		GCSBucket:      env.GCSBucket,
		GCPCredentials: env.GCPCredentials,
		S3Bucket:       env.S3Bucket,
		S3Region:       env.S3Region,
		S3Endpoint:     env.S3Endpoint,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to init blob store")
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			log.WithError(err).Warn("Failed to close blob store")
		}
	}()

	hub := libraries.NewHub()
	go hub.Run(ctx)
	publisher, closePublisher := newPublisher(ctx, env, hub)
	defer closePublisher()

	// Recompute must run before the push so clients read fresh derived fields.
	bus := kanban.NewBus()
	bus.Subscribe(services.NewAggregator(st.boards, st.tasks).Handle)
	bus.Subscribe(services.NewPushNotifier(st.boards, publisher).Handle)

	notifications := services.NewNotificationService(newMailer(env), st.users, services.NotificationConfig{
		AppBaseURL:   env.AppBaseURL,
		CompanyName:  env.CompanyName,
		SupportEmail: env.SupportEmail,
	})
	documents := services.NewDocumentService(st.boards, st.users, blobs, bus, env.UploadRollback)

	deps := v1.Deps{
		Auth:      middleware.NewAuth(env.AuthJWTSecret, env.AuthJWTIssuer, env.AuthJWTAudience),
		Users:     st.users,
		Boards:    services.NewBoardService(st.boards, st.tasks, st.users, documents, notifications, bus, env.BoardCascadeDelete),
		Tasks:     services.NewTaskService(st.boards, st.tasks, bus),
		Documents: documents,
		Reports:   services.NewReportService(st.boards, st.tasks, st.users),
		Hub:       hub,
	}
	if fs, ok := blobs.(*libraries.FileBlobStore); ok {
		deps.FilesDir = fs.Dir()
	}

	// Create and configure Fiber app
	app := api.NewServer(env.MaxUploadBytes)

	// Register routes
	routes.Register(app, deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	if err := api.StartServer(app, env.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
