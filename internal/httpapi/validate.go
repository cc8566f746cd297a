package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldMessages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"min":      "The field '%s' must be at least %s characters long.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"maxbytes": "The field '%s' must be no longer than %s bytes.",
	"gte":      "The field '%s' must be greater than or equal to %s.",
	"lte":      "The field '%s' must be less than or equal to %s.",
}

type fieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// bcrypt truncates at 72 bytes, so credential limits count bytes, not runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

func fieldMessage(e validator.FieldError) string {
	msg, ok := fieldMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}

func writeFieldError(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []fieldError{{Field: field, Msg: msg}},
	})
}

// validateRequest writes a 422 and returns false when v fails its struct tags.
func (s *Server) validateRequest(w http.ResponseWriter, v any) bool {
	err := s.validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	out := make([]fieldError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, fieldError{Field: e.Field(), Msg: fieldMessage(e)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": out})
	return false
}
