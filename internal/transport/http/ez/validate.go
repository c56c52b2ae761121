package ez

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"go-gin-chat-moderation/internal/domain"
	resp "go-gin-chat-moderation/internal/transport/http/response"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags to gin's validator:
//
//	review_action  one of delete|warn|ban|ignore, case-insensitive
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("review_action", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseReviewAction(fl.Field().String())
			return err == nil
		})
	})
}

// bindError turns validator output into a code and a single readable line.
// An unknown review action keeps its own code so the binding layer and the
// service agree.
func bindError(err error) (int, string) {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return resp.CodeBadRequest, err.Error()
	}
	fe := ves[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return resp.CodeBadRequest, field + " is required"
	case "review_action":
		return resp.CodeUnprocessable, fmt.Sprintf("invalid action, expected one of %s", strings.Join(domain.ReviewActionNames(), ", "))
	case "max":
		return resp.CodeBadRequest, fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return resp.CodeBadRequest, fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return resp.CodeBadRequest, fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return resp.CodeBadRequest, field + " is invalid"
}
