package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/andresuchdata/redistribution-planner/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TransferHandler struct {
	service *service.TransferSuggestionService
}

func NewTransferHandler(service *service.TransferSuggestionService) *TransferHandler {
	return &TransferHandler{service: service}
}

// GenerateSuggestions runs a planning cycle. The body is optional; an empty
// body runs with the configured defaults. Plan-level failures (no data, no
// inventory) still return 200 with success=false so clients get a uniform
// payload shape.
func (h *TransferHandler) GenerateSuggestions(c *gin.Context) {
	var req domain.PlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	result, err := h.service.GenerateSuggestions(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("transfer suggestion run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate transfer suggestions"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatest returns the most recent cached plan.
func (h *TransferHandler) GetLatest(c *gin.Context) {
	result, ok, err := h.service.Latest(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("plan cache read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read cached plan"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached plan available"})
		return
	}
	c.JSON(http.StatusOK, result)
}
