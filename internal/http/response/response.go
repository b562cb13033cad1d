package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
)

type APIError struct {
	Message     string `json:"message"`
	Code        string `json:"code,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Compensated bool   `json:"compensated,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps an error onto the wire envelope. Pipeline errors
// carry their stage and compensation flag so a client can tell a clean
// rollback from a partial write.
func RespondError(c *gin.Context, err error) {
	apiErr := APIError{
		Message: "unknown error",
		Code:    apierr.CodeOf(err),
	}
	if err != nil {
		apiErr.Message = err.Error()
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		apiErr.Stage = ae.Stage
		apiErr.Compensated = ae.Compensated
	}
	c.JSON(apierr.StatusOf(err), ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
