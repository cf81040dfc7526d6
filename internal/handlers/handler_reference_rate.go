package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/recon_engine/internal/core/ports/services"
	"github.com/SscSPs/recon_engine/internal/dto"
	"github.com/SscSPs/recon_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// referenceRateHandler handles HTTP requests related to reference FX rates.
type referenceRateHandler struct {
	referenceRateService portssvc.ReferenceRateSvcFacade
}

// newReferenceRateHandler creates a new referenceRateHandler.
func newReferenceRateHandler(rs portssvc.ReferenceRateSvcFacade) *referenceRateHandler {
	return &referenceRateHandler{
		referenceRateService: rs,
	}
}

// RegisterReferenceRateRoutes registers routes related to reference FX rates.
func RegisterReferenceRateRoutes(rg *gin.RouterGroup, referenceRateService portssvc.ReferenceRateSvcFacade) {
	h := newReferenceRateHandler(referenceRateService)

	rates := rg.Group("/reference-rates")
	{
		rates.POST("", h.saveReferenceRate)
		rates.GET("", h.listReferenceRates)
	}
}

// saveReferenceRate godoc
// @Summary Store a reference FX rate
// @Description Adds or replaces the reference rate of a currency pair for one day. Batches without their own rates fall back on these.
// @Tags reference rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.ReferenceRateDTO true "Reference rate details"
// @Success 201 {object} dto.ReferenceRateResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 500 {object} map[string]string "Failed to save reference rate"
// @Router /reference-rates [post]
func (h *referenceRateHandler) saveReferenceRate(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.ReferenceRateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SaveReferenceRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rate, err := req.ToDomain("rate")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("from", rate.FromCurrency), slog.String("to", rate.ToCurrency))
	logger.Info("Received request to save reference rate", slog.Time("date_effective", rate.DateEffective))

	saved, err := h.referenceRateService.SaveReferenceRate(c.Request.Context(), rate)
	if err != nil {
		respondError(c, logger, err, "Failed to save reference rate")
		return
	}

	c.JSON(http.StatusCreated, dto.ToReferenceRateResponse(*saved))
}

// listReferenceRates godoc
// @Summary List reference FX rates
// @Description Retrieves the reference rates effective on one day
// @Tags reference rates
// @Produce  json
// @Param   date query string true "Day in YYYY-MM-DD format"
// @Success 200 {object} dto.ListReferenceRatesResponse
// @Failure 400 {object} map[string]string "Missing or invalid date"
// @Failure 500 {object} map[string]string "Failed to list reference rates"
// @Router /reference-rates [get]
func (h *referenceRateHandler) listReferenceRates(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	var params dto.ListReferenceRatesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListReferenceRates", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	date, err := dto.ParseDate("date", params.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rates, err := h.referenceRateService.ListReferenceRates(c.Request.Context(), date)
	if err != nil {
		respondError(c, logger, err, "Failed to list reference rates")
		return
	}

	c.JSON(http.StatusOK, dto.ToListReferenceRatesResponse(date, rates))
}
