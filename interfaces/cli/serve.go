package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"omnipost/infrastructure/logger"
	"omnipost/infrastructure/utils"
	httpHandler "omnipost/interfaces/http"
	"omnipost/server"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Router builds the HTTP API for the app.
func (a *App) Router() *gin.Engine {
	if err := httpHandler.RegisterValidators(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to register request validators")
	}
	h := server.Handlers{
		Health:     httpHandler.NewHealthHandler(a.Config.Store.Driver),
		Platform:   httpHandler.NewPlatformHandler(a.Workspace, a.Connections),
		Connection: httpHandler.NewConnectionHandler(a.Workspace, a.Config.OAuth.RedirectURI),
		Account:    httpHandler.NewAccountHandler(a.Workspace),
		Post:       httpHandler.NewPostHandler(a.Workspace, a.Hub),
	}
	return server.InitiateRouter(h, server.RouterConfig{
		SecretKey:    a.Config.App.SecretKey,
		AllowOrigins: a.Config.App.AllowOrigins,
		Metrics:      a.Metrics,
	})
}

// WriteAPIToken signs a token for the local UI and stores it next to the snapshot.
func (a *App) WriteAPIToken() error {
	if a.Config.App.SecretKey == "" {
		return nil
	}
	now := utils.GetCurrentTime()
	token, err := utils.GenerateToken(map[string]interface{}{
		"iss":   "omnipost",
		"sub":   "local-ui",
		"scope": "api",
		"iat":   now.Unix(),
		"exp":   now.Add(30 * 24 * time.Hour).Unix(),
	}, a.Config.App.SecretKey)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(a.TokenPath(), []byte(token), 0o600)
}

// Serve runs the HTTP API until ctx ends or an interrupt arrives, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	if err := a.WriteAPIToken(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to write API token")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.App.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":  a.Config.App.Port,
		"store": a.Config.Store.Driver,
		"auth":  a.Config.App.SecretKey != "",
	}).Info("Starting application")

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		return err
	}
	return nil
}
