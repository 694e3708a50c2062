package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/siherrmann/chronosatlas/api"
	"github.com/siherrmann/chronosatlas/helper"
)

// Handler serves the /api/v1 resources from a Store
type Handler struct {
	store api.Store
	log   *slog.Logger
}

func NewHandler(store api.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, log: logger}
}

// NewRouter builds the gin engine with host checking, CORS, request logging
// and recovery in front of every route. Routes added to the engine later
// get the same middleware.
func NewRouter(store api.Store, config *helper.ServerConfiguration, logger *slog.Logger) (*gin.Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(RequestLogger(logger), Recovery(logger), AllowedHosts(config))

	if len(config.CORSAllowedOrigins) > 0 {
		corsConfig := cors.Config{
			AllowOrigins:  config.CORSAllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}
		if err := corsConfig.Validate(); err != nil {
			return nil, helper.NewError("cors configuration", err)
		}
		router.Use(cors.New(corsConfig))
	}

	router.NoRoute(func(c *gin.Context) {
		writeError(c, logger, helper.ErrNotFound)
	})

	h := NewHandler(store, logger)
	h.Register(router.Group("/api/v1"))

	return router, nil
}

// Register adds all resource routes to group
func (h *Handler) Register(group *gin.RouterGroup) {
	figures := group.Group("/figures")
	figures.GET("", h.ListFigures)
	figures.POST("", h.CreateFigure)
	figures.GET("/:id", h.GetFigure)
	figures.PUT("/:id", h.UpdateFigure)
	figures.PATCH("/:id", h.UpdateFigure)
	figures.DELETE("/:id", h.DeleteFigure)
	figures.GET("/:id/lineage", h.FigureLineage)

	timeline := group.Group("/timeline")
	timeline.GET("", h.ListTimelineEvents)
	timeline.POST("", h.CreateTimelineEvent)
	timeline.GET("/:id", h.GetTimelineEvent)
	timeline.PUT("/:id", h.UpdateTimelineEvent)
	timeline.PATCH("/:id", h.UpdateTimelineEvent)
	timeline.DELETE("/:id", h.DeleteTimelineEvent)

	influences := group.Group("/influences")
	influences.GET("", h.ListInfluences)
	influences.POST("", h.CreateInfluence)
	influences.GET("/:id", h.GetInfluence)
	influences.PUT("/:id", h.UpdateInfluence)
	influences.PATCH("/:id", h.UpdateInfluence)
	influences.DELETE("/:id", h.DeleteInfluence)

	fields := group.Group("/fields")
	fields.GET("", h.ListFields)
	fields.POST("", h.CreateField)
	fields.GET("/:id", h.GetField)
}

// writeError renders err as {"error": {code, message, field}}
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	problem := api.Classify(err)
	if problem.Status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.String("method", c.Request.Method), slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(problem.Status, gin.H{"error": problem})
}

func (h *Handler) fail(c *gin.Context, err error) {
	writeError(c, h.log, err)
}
