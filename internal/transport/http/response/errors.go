package response

import (
	"errors"

	"go-gin-chat-moderation/internal/domain"
)

// FromError maps a service error onto the envelope. Anything unrecognised,
// store failures included, becomes a bare "internal error"; the detail
// belongs in the logs, not the response.
func FromError(err error) Resp {
	code, msg := Classify(err)
	return Error(code, msg)
}

func Classify(err error) (int, string) {
	switch {
	case err == nil:
		return CodeOK, CodeMsgMap[CodeOK]
	case errors.Is(err, domain.ErrStore):
		return CodeServerError, "internal error"
	case errors.Is(err, domain.ErrValidation):
		return CodeBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return CodeUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		return CodeForbidden, "unauthorized"
	case errors.Is(err, domain.ErrBanned):
		return CodeForbidden, "account banned"
	case errors.Is(err, domain.ErrSuspended):
		return CodeForbidden, "account suspended"
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound, err.Error()
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return CodeConflict, "flag already reviewed"
	case errors.Is(err, domain.ErrInvalidAction):
		return CodeUnprocessable, "invalid action"
	}
	return CodeServerError, "internal error"
}
