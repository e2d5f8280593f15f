package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/angelicadichon/eSumbong/pkg/errors"
)

// JSON sends a success envelope. The dashboards consume flat
// `{success, ...}` objects, so the payload fields are merged into the
// envelope rather than nested under a data key.
func JSON(c *gin.Context, status int, payload gin.H) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	envelope := gin.H{"success": true}
	for k, v := range payload {
		envelope[k] = v
	}
	c.JSON(status, envelope)
}

// Message sends a success envelope carrying only a human-readable message.
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, gin.H{"message": message})
}

// Error converts the error into a `{success:false, message}` envelope using
// the typed error's HTTP status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, gin.H{
		"success": false,
		"message": appErr.Message,
		"code":    appErr.Code,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
