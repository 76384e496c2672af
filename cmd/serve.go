package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jemaltech/app2automate/config"
	"github.com/jemaltech/app2automate/handlers"
	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/repositories"
	"github.com/jemaltech/app2automate/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the index reconciler",
		RunE:  serveCommand,
	}
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	log := a.log
	if err := config.Migrate(a.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := a.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}

	h, err := helper.NewHTTPHelper(a.cfg.App.Name, a.cfg.HTTP.DefaultPageSize, a.cfg.HTTP.MaxPageSize)
	if err != nil {
		return err
	}

	blogRepo := repositories.NewBlogRepository(a.db)
	tagRepo := repositories.NewTagRepository(a.db)
	userRepo := repositories.NewUserRepository(a.db)

	reconciler := a.reconciler()
	postService := services.NewPostService(a.posts, blogRepo, a.outbox, a.index)
	authService := services.NewAuthService(userRepo, []byte(a.cfg.JWT.Secret), a.cfg.JWT.Expiration)
	blogService := services.NewBlogService(blogRepo)
	tagService := services.NewTagService(tagRepo)

	if a.cfg.Log.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Helper:    h,
		Logger:    log,
		JWTSecret: []byte(a.cfg.JWT.Secret),
		Auth:      handlers.NewAuthHandler(authService, h),
		Posts:     handlers.NewPostHandler(postService, reconciler, h),
		Blogs:     handlers.NewBlogHandler(blogService, h),
		Tags:      handlers.NewTagHandler(tagService, h),
	})

	if a.cfg.Reconciler.Enabled {
		go reconciler.Run(ctx)
	}

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}

	log.Info("Server stopped gracefully")
	return nil
}
