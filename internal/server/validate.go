package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
)

type requestValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newRequestValidator() (*requestValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: validate, trans: trans}, nil
}

// check returns an InvalidArgument error with a BadRequest detail listing
// every field violation.
func (v *requestValidator) check(msg any) *connect.Error {
	err := v.validate.Struct(msg)
	if err == nil {
		return nil
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, err)
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return connectErr
	}

	messages := make([]string, 0, len(validationErrs))
	fieldViolations := make([]*errdetails.BadRequest_FieldViolation, 0, len(validationErrs))
	for _, fe := range validationErrs {
		description := fe.Translate(v.trans)
		messages = append(messages, description)
		fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       fe.Field(),
			Description: description,
		})
	}

	connectErr = connect.NewError(connect.CodeInvalidArgument, errors.New(strings.Join(messages, "; ")))
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: fieldViolations,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}
