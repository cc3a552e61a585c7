package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam проверяет числовой идентификатор в пути (например, :topicId) и кладёт его
// в контекст Gin под ключом contextKey. Идентификаторы записей начинаются с 1,
// поэтому ноль отклоняется так же, как нечисловое значение.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":      fmt.Sprintf("%s must be a positive integer, got %q", paramName, raw),
				"error_type": "invalid_id",
			})
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}
