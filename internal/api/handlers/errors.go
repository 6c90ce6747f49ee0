package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/quotemanager/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// serviceError maps service errors onto HTTP statuses.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		errorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptySelection), errors.Is(err, service.ErrInvalidQuantity):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		errorResponse(c, http.StatusInternalServerError, "internal error")
	}
}
