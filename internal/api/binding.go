package api

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// requestError is a malformed request caught before the domain service runs
type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(message string) error {
	return &requestError{message: message}
}

func isRequestError(err error) bool {
	var target *requestError
	return errors.As(err, &target)
}

var registerTagNames sync.Once

// jsonFieldNames makes validation errors report json names instead of Go
// field names.
func jsonFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON reads the body, checks that it is a JSON object and binds it into
// obj, running the binding tags.
func bindJSON(c *gin.Context, obj interface{}) error {
	jsonFieldNames()

	if c.Request.Body == nil {
		return badRequest("request body is required")
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return badRequest("request body is required")
	}
	if len(body) == 0 {
		return badRequest("request body is required")
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return badRequest("invalid JSON payload")
	}
	if _, ok := payload.(map[string]interface{}); !ok {
		return badRequest("payload must be a JSON object")
	}

	if err := binding.JSON.BindBody(body, obj); err != nil {
		return translateBindError(err)
	}
	return nil
}

func translateBindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return badRequest("invalid " + lastSegment(typeErr.Field))
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return badRequest("missing field " + fe.Field())
		}
		return badRequest("invalid " + fe.Field())
	}

	return badRequest("invalid JSON payload")
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("invalid " + field)
	}
	return id, nil
}
