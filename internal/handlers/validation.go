package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
)

var registerOnce sync.Once

// RegisterValidators adds the enum tags used by request structs to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(wireName)
		_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
			return models.TaskPriority(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("userrole", func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).IsValid()
		})
	})
}

// FieldError describes one rejected request field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

var reasonByTag = map[string]apierrors.Reason{
	"taskstatus":   apierrors.ReasonInvalidStatus,
	"taskpriority": apierrors.ReasonInvalidPriority,
	"userrole":     apierrors.ReasonInvalidRole,
}

// respondBindError turns a binding failure into a 400. Enum violations keep
// their specific reason code.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	reason := apierrors.ReasonValidationFailed
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if r, ok := reasonByTag[fe.Tag()]; ok && reason == apierrors.ReasonValidationFailed {
			reason = r
		}
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}

	apierrors.BadRequestWithDetails(c, reason, fmt.Sprintf("Invalid value for %s", details[0].Field), details)
}

// wireName reports a struct field by its json or form key, so validation
// errors name the field the client actually sent.
func wireName(field reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// optionalString records whether a JSON key was present, so that an explicit
// null can be told apart from an omitted field.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}
