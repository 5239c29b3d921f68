package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/streamkit/errors"
)

// RegisterRoutes mounts the board on r:
//
//	GET    /notices
//	GET    /notices/:id
//	DELETE /notices/:id
func RegisterRoutes(r gin.IRouter, b *Board) {
	g := r.Group("/notices")
	g.GET("", listNotices(b))
	g.GET("/:id", getNotice(b))
	g.DELETE("/:id", dismissNotice(b))
}

func listNotices(b *Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notices": b.Active()})
	}
}

func getNotice(b *Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := b.Get(c.Param("id"))
		if !ok {
			notFound(c)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func dismissNotice(b *Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !b.Dismiss(c.Param("id")) {
			notFound(c)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func notFound(c *gin.Context) {
	e := apperrors.NotFound("notice", c.Param("id"))
	c.JSON(e.HTTPStatus, e.ToResponse())
}
