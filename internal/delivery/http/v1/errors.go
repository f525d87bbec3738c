package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/go-task-tracker/internal/services"
)

var (
	errInvalidRequestBody  = errors.New("invalid request body")
	errInvalidQuery        = errors.New("invalid query parameters")
	errInvalidTaskID       = errors.New("invalid task id")
	errAuthorizationHeader = errors.New("invalid authorization header")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// newServiceError maps a service error to a response. Unknown errors become
// a bare 500 so no internal detail reaches the client.
func newServiceError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return newNotFoundError(services.ErrTaskNotFound.Error())
	case errors.Is(err, services.ErrTaskIDMismatch):
		return newBadRequestError(services.ErrTaskIDMismatch.Error())
	case errors.Is(err, services.ErrInvalidTask),
		errors.Is(err, services.ErrInvalidUser):
		return newBadRequestError(err.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return newConflictError(services.ErrUserAlreadyExists.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return newUnauthorizedError(services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrInvalidToken):
		return newUnauthorizedError(services.ErrInvalidToken.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}

// newBindingError lists the failed fields when the validator rejected the
// input and falls back to fallback otherwise.
func newBindingError(err error, fallback error) apiError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newBadRequestError(fallback.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s must be provided", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return newBadRequestError(strings.Join(msgs, "; "))
}
