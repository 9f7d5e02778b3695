package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/erp/receivables/internal/domain/collection"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator reports field names by their json (or form) tag and
// registers the domain tags used by request DTOs.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return collection.PaymentMethod(fl.Field().String()).IsValid()
	})
}

// BindingErrorResponse turns a gin binding error into a validation envelope
func BindingErrorResponse(err error, requestID string) dto.Response {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, e := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: validationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		return dto.NewErrorResponse(dto.KindValidation, dto.ErrCodeInvalidJSON, "Request body is empty", requestID)
	case errors.As(err, &syntaxErr):
		return dto.NewErrorResponse(dto.KindValidation, dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID)
	case errors.As(err, &typeErr):
		resp := dto.NewErrorResponse(dto.KindValidation, dto.ErrCodeInvalidJSON, "Request body has a field of the wrong type", requestID)
		if typeErr.Field != "" {
			resp.Error.Details = []dto.ValidationDetail{{Field: typeErr.Field, Message: "Must be of type " + typeErr.Type.String()}}
		}
		return resp
	}
	return dto.NewErrorResponse(dto.KindValidation, dto.ErrCodeInvalidJSON, err.Error(), requestID)
}

// fieldPath drops the root struct name from the namespace: "ApplyReceiptRequest.attachments[0].file_name"
// becomes "attachments[0].file_name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Must be a valid UUID"
	case "iso4217":
		return "Must be an ISO 4217 currency code"
	case "payment_method":
		return "Unknown payment method"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must contain at most " + e.Param() + " items"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must contain at least " + e.Param() + " items"
	default:
		return "Failed on the '" + e.Tag() + "' rule"
	}
}
