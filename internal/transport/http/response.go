package httptransport

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"envisonet-server-go/internal/platform/errors"
)

// RespondMessage writes the success shape shared by the query endpoints:
// a spoken message plus the URL of the audio rendition.
func RespondMessage(c *gin.Context, message, audioURL string) {
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"audio_url": audioURL,
	})
}

// RespondError maps a pipeline error to its HTTP status and the error
// shape the client expects.
func RespondError(c *gin.Context, err error) {
	body := gin.H{"error": errorMessage(err)}
	if details := errors.Detail(err); details != "" {
		body["details"] = details
	}
	c.JSON(errors.HTTPStatus(err), body)
}

func errorMessage(err error) string {
	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return typed.Message
	}
	return err.Error()
}
