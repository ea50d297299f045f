package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the per-request id.
const RequestIDKey = "requestID"

// ListResponse wraps unpaginated listings.
type ListResponse[T any] struct {
	OK    bool `json:"ok"`
	Items []T  `json:"items"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	// never emit null for an empty listing
	if items == nil {
		items = make([]T, 0)
	}
	return ListResponse[T]{OK: true, Items: items}
}

func OK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
