package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/njchilds90/apoptosim/loop"
	"github.com/njchilds90/apoptosim/models"
	"github.com/njchilds90/apoptosim/ode"
	"github.com/njchilds90/apoptosim/store"
	"github.com/njchilds90/apoptosim/table"
	"github.com/njchilds90/apoptosim/telemetry"
)

var validate = validator.New()

// SolveResponse wraps a solve result.
type SolveResponse struct {
	RequestID string       `json:"request_id"`
	Result    *table.Table `json:"result"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": models.Catalog()})
}

func (s *Server) solve(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.solve")
	defer span.End()
	logger := telemetry.LoggerWithTrace(ctx, s.logger).With(slog.String("request_id", c.GetString("request_id")))

	var req models.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.SaveAt) > s.cfg.MaxSavePoints {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many save points"})
		return
	}
	span.SetAttributes(
		attribute.String("model", req.Model),
		attribute.Int("replicates", req.Replicates),
	)

	if s.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SolveTimeout)
		defer cancel()
	}
	tb, err := models.Solve(ctx, req, loop.WithCache(s.cache), loop.WithLogger(logger))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		status := statusFor(err)
		logger.Warn("solve failed", slog.String("model", req.Model), slog.Int("status", status), slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, SolveResponse{RequestID: c.GetString("request_id"), Result: tb})
}

// statusFor maps integration failures to 422, timeouts to 504 and
// everything else, which is a problem with the request, to 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ode.ErrStepTooSmall), errors.Is(err, ode.ErrMaxSteps), errors.Is(err, ode.ErrInvalidState):
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func (s *Server) listResults(c *gin.Context) {
	keys, err := s.store.Keys(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

func (s *Server) getResult(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	tb, err := s.store.Get(c.Request.Context(), key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no result for " + key})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, tb)
	}
}
