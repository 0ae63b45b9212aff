package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
	"github.com/umalmyha/inquiries/internal/model"
)

const inquiryStatusTag = "inquiry_status"

type violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type PayloadError struct {
	violations []violation
}

func (e *PayloadError) Error() string {
	buff := bytes.NewBufferString("")

	for _, err := range e.violations {
		buff.WriteString(err.Message)
		buff.WriteString("\n")
	}

	return buff.String()
}

func (e *PayloadError) Violation(v violation) {
	e.violations = append(e.violations, v)
}

func (e *PayloadError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Errors []violation `json:"errors"`
	}{
		Errors: e.violations,
	})
}

type EchoValidator struct {
	validator  *validator.Validate
	translator ut.Translator
}

func Echo(validator *validator.Validate, translator ut.Translator) *EchoValidator {
	return &EchoValidator{
		validator:  validator,
		translator: translator,
	}
}

// English builds EchoValidator with english messages which knows inquiry_status rule
func English() (*EchoValidator, error) {
	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")

	v := validator.New()
	if err := enTranslations.RegisterDefaultTranslations(v, translator); err != nil {
		return nil, fmt.Errorf("failed to register validator translations - %w", err)
	}

	if err := v.RegisterValidation(inquiryStatusTag, func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	}); err != nil {
		return nil, fmt.Errorf("failed to register %s validation - %w", inquiryStatusTag, err)
	}

	err := v.RegisterTranslation(inquiryStatusTag, translator, func(ut ut.Translator) error {
		return ut.Add(inquiryStatusTag, "{0} must be one of new, contacted, scheduled, completed, cancelled", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		msg, _ := ut.T(inquiryStatusTag, fe.Field())
		return msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register %s translation - %w", inquiryStatusTag, err)
	}

	return Echo(v, translator), nil
}

func (v *EchoValidator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return v.payloadError(ve)
	}

	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (v *EchoValidator) payloadError(ve validator.ValidationErrors) error {
	pldErr := &PayloadError{violations: make([]violation, 0)}
	for _, e := range ve {
		pldErr.Violation(violation{
			Field:   e.Field(),
			Message: e.Translate(v.translator),
		})
	}
	return pldErr
}
