package middlewares

import (
	"net/http"

	domainErrors "go-campaign-api/src/domain/errors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler translates application errors attached to the context into
// HTTP responses. Handlers report failures with ctx.Error and return.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := err.(*domainErrors.AppError); ok {
			c.JSON(statusForErrorType(appErr.Type), gin.H{"error": appErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func statusForErrorType(errType string) int {
	switch errType {
	case domainErrors.NotFound:
		return http.StatusNotFound
	case domainErrors.ValidationError:
		return http.StatusBadRequest
	case domainErrors.ResourceAlreadyExists:
		return http.StatusConflict
	case domainErrors.InvalidStateTransition:
		return http.StatusConflict
	case domainErrors.NotAuthenticated:
		return http.StatusUnauthorized
	case domainErrors.NotAuthorized:
		return http.StatusForbidden
	case domainErrors.RepositoryError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
