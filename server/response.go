package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamkit/errors"
)

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// RespondWithError derives the status and body from err. Errors that are not
// AppErrors are sent as an opaque 500.
func RespondWithError(c *gin.Context, err error) {
	status, body := apperrors.ToResponse(err)
	c.JSON(status, body)
}
