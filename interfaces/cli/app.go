package cli

import (
	"context"
	"path/filepath"

	"omnipost/domain/repository"
	"omnipost/infrastructure/browser"
	"omnipost/infrastructure/clients/social"
	"omnipost/infrastructure/configuration"
	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/metrics"
	"omnipost/infrastructure/pubsub"
	"omnipost/infrastructure/realtime"
	"omnipost/infrastructure/servicebus"
	"omnipost/usecase"
)

// App is the wired object graph shared by every command.
type App struct {
	Config      configuration.Config
	Credentials *configuration.CredentialStore
	Connections usecase.IConnectionUsecase
	Workspace   usecase.IWorkspace
	Hub         *realtime.Hub
	Metrics     *metrics.Metrics

	closers []func()
}

// NewApp builds the application from cfg and loads the stored workspace.
func NewApp(ctx context.Context, cfg configuration.Config) (*App, error) {
	app := &App{Config: cfg, Hub: realtime.NewPostHub()}

	app.Credentials = configuration.NewCredentialStore(cfg.OAuth.CredentialsFile)
	if err := app.Credentials.EnsureTemplateExists(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Could not create OAuth credentials template")
	}

	var connOpts []usecase.ConnectionOption
	var publishOpts = []usecase.PublishOption{
		usecase.WithConcurrency(cfg.Publish.Concurrency),
		usecase.WithAttemptTimeout(cfg.Publish.AttemptTimeout),
	}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.New()
		connOpts = append(connOpts, usecase.WithConnectionMetrics(app.Metrics))
		publishOpts = append(publishOpts, usecase.WithPublishMetrics(app.Metrics))
	}

	client := social.NewClient(cfg.OAuth.RedirectURI, social.WithTimeout(cfg.OAuth.HTTPTimeout))
	app.Connections = usecase.NewConnectionUsecase(app.Credentials, client, browser.NewLauncher(cfg.Browser.Enabled), cfg.OAuth.SessionTTL, connOpts...)
	engine := usecase.NewPublishEngine(nil, publishOpts...)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	sinks := []repository.IPostEventPublisher{app.Hub}
	sinks = append(sinks, app.externalSinks(ctx)...)

	app.Workspace = usecase.NewWorkspace(app.Connections, engine, store, usecase.WithEventSinks(sinks...))
	// A failed load starts empty; the error is already logged.
	_ = app.Workspace.Load(ctx)
	return app, nil
}

// externalSinks wires the optional message brokers. Either one failing to start is not fatal.
func (a *App) externalSinks(ctx context.Context) []repository.IPostEventPublisher {
	var sinks []repository.IPostEventPublisher
	cfg := a.Config

	if cfg.Pubsub.ProjectID != "" {
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
		} else {
			topic := pubsub.NewPostTopic(client, cfg.Pubsub.Topic)
			sinks = append(sinks, topic)
			a.closers = append(a.closers, func() { topic.Close(); _ = client.Close() })
		}
	}
	if cfg.ServiceBus.Namespace != "" {
		client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
		} else {
			sinks = append(sinks, servicebus.NewPostQueue(client, cfg.ServiceBus.Queue))
			a.closers = append(a.closers, func() { _ = client.Close(context.Background()) })
		}
	}
	return sinks
}

func (a *App) TokenPath() string {
	return filepath.Join(a.Config.Store.DataDir, "api_token")
}

// Close releases stores and broker clients in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
