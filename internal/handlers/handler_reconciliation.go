package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/recon_engine/internal/apperrors"
	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
	"github.com/SscSPs/recon_engine/internal/dto"
	"github.com/SscSPs/recon_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler handles HTTP requests related to reconciliation runs.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

// newReconciliationHandler creates a new reconciliationHandler.
func newReconciliationHandler(rs portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: rs,
	}
}

// RegisterReconciliationRoutes registers routes related to reconciliation runs.
func RegisterReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	reconciliations := rg.Group("/reconciliations")
	{
		reconciliations.POST("", h.reconcile)
		reconciliations.GET("/:batchID/exceptions", h.listExceptions)
	}
}

// reconcile godoc
// @Summary Reconcile a batch
// @Description Matches two transaction sources, detects breaks and classifies them. Malformed records are reported in report.rejected.
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   batch body dto.ReconcileRequest true "Transactions of both sources plus reference data"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Failed to reconcile batch"
// @Router /reconciliations [post]
func (h *reconciliationHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Reconcile", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if len(req.SourceA) == 0 && len(req.SourceB) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one transaction is required"})
		return
	}

	batch, err := req.ToDomain()
	if err != nil {
		logger.Warn("Invalid reconciliation request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.Info("Received request to reconcile batch",
		slog.String("batch_id", batch.ID),
		slog.Int("source_a", len(batch.SourceA)),
		slog.Int("source_b", len(batch.SourceB)),
	)

	result, err := h.reconciliationService.Reconcile(c.Request.Context(), batch)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile batch")
		return
	}

	logger.Info("Batch reconciled successfully",
		slog.String("batch_id", result.BatchID),
		slog.Int("exceptions", len(result.Exceptions)),
	)
	c.JSON(http.StatusOK, dto.ToReconcileResponse(*result))
}

// listExceptions godoc
// @Summary List exceptions of a batch
// @Description Retrieves the stored exceptions of a reconciled batch in emission order
// @Tags reconciliations
// @Produce  json
// @Param   batchID path string true "Batch ID"
// @Param   limit query int false "Page size" default(100)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListExceptionsResponse
// @Failure 400 {object} map[string]string "Invalid batch ID or query parameters"
// @Failure 404 {object} map[string]string "Batch not found"
// @Failure 500 {object} map[string]string "Failed to list exceptions"
// @Router /reconciliations/{batchID}/exceptions [get]
func (h *reconciliationHandler) listExceptions(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	batchID := c.Param("batchID")

	var params dto.ListExceptionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListExceptions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	exceptions, nextToken, err := h.reconciliationService.ListExceptions(c.Request.Context(), batchID, params.Limit, params.NextToken)
	if err != nil {
		respondError(c, logger.With(slog.String("batch_id", batchID)), err, "Failed to list exceptions")
		return
	}

	c.JSON(http.StatusOK, dto.ListExceptionsResponse{
		BatchID:    batchID,
		Exceptions: dto.ToListExceptionResponse(exceptions),
		NextToken:  nextToken,
	})
}

// respondError maps service errors to HTTP status codes. Unexpected errors
// are logged and hidden behind fallback.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Duplicate resource", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
