package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/siherrmann/chronosatlas/api/graphql"
	"github.com/siherrmann/chronosatlas/api/rest"
	"github.com/siherrmann/chronosatlas/helper"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and the GraphQL endpoint",
		Long:  "Serves /api/v1 and /graphql on PORT. Configuration is read from the environment.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	logger := newLogger()

	serverConfig, err := helper.NewServerConfiguration()
	if err != nil {
		return fmt.Errorf("loading server configuration: %w", err)
	}
	if !serverConfig.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	atlas, err := openAtlas(logger, serverConfig, migrate)
	if err != nil {
		return err
	}
	defer atlas.Close()

	router, err := rest.NewRouter(atlas, serverConfig, logger)
	if err != nil {
		return fmt.Errorf("building router: %w", err)
	}

	graphqlServer, err := graphql.NewServer(atlas, logger)
	if err != nil {
		return fmt.Errorf("building graphql server: %w", err)
	}
	router.GET("/graphql", gin.WrapH(graphqlServer))
	router.POST("/graphql", gin.WrapH(graphqlServer))

	router.GET("/healthz", func(c *gin.Context) {
		if err := atlas.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server := &http.Server{
		Addr:              ":" + serverConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Serving", slog.String("addr", server.Addr), slog.Bool("debug", serverConfig.Debug))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
