package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/reactgram/internal/apperror"
)

// maxJSONBytes caps JSON request bodies. Uploads use the multipart limit instead.
const maxJSONBytes = 1 << 20

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves every request.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name ("confirmPassword"), not the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// bcrypt reads at most 72 bytes; "max" counts runes.
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// validateStruct runs the `validate` tags of req and converts every failure
// into a field-level message, all returned together as one validation error.
func validateStruct(req any, extra ...*apperror.AppError) error {
	fields, err := fieldErrors(req)
	if err != nil {
		return err
	}
	return apperror.Validation(append(fields, extra...)...)
}

func fieldErrors(req any) ([]*apperror.AppError, error) {
	err := validate.Struct(req)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("handler: validating request: %w", err)
	}

	fields := make([]*apperror.AppError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.ValidationFailed(fe.Field(), messageFor(fe)))
	}
	return fields, nil
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, fe.Param())
	case "email":
		return "email must be a valid email address"
	case "eqfield":
		return "passwords do not match"
	}
	return field + " is invalid"
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored, to
// match what the frontend already sends.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperror.BadRequest("request body too large")
		case errors.Is(err, io.EOF):
			// Empty body: let validation report the missing fields.
			return nil
		}
		return apperror.BadRequest("invalid request body")
	}
	return nil
}

// pathID validates an identifier taken from the URL. Ids are xids; anything
// else is a 400 before the store is ever asked.
func pathID(raw string) (string, error) {
	if _, err := xid.FromString(raw); err != nil {
		return "", apperror.BadRequest("invalid id")
	}
	return raw, nil
}
