package evaluate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/tutorlens/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(resultsRules, model.ResultsRequest{})
	return v
}

// resultsRules covers the rules that depend on more than one field.
func resultsRules(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.ResultsRequest)
	if req.ContextOnly {
		return
	}
	if req.SelectedModel == "" {
		sl.ReportError(req.SelectedModel, "selectedModel", "SelectedModel", "required", "")
	}
	if !req.ResponseOnly && len(req.SelectedDimensions) == 0 {
		sl.ReportError(req.SelectedDimensions, "selectedDimensions", "SelectedDimensions", "min", "1")
	}
	if req.ComparisonMode {
		switch {
		case req.SecondModel == "":
			sl.ReportError(req.SecondModel, "secondModel", "SecondModel", "required", "")
		case req.SecondModel == req.SelectedModel:
			sl.ReportError(req.SecondModel, "secondModel", "SecondModel", "nefield", "selectedModel")
		}
	}
	if req.JudgeComparisonMode {
		switch {
		case req.SecondJudgeLLM == "":
			sl.ReportError(req.SecondJudgeLLM, "secondJudgeLLM", "SecondJudgeLLM", "required", "")
		case req.SecondJudgeLLM == req.JudgeLLM:
			sl.ReportError(req.SecondJudgeLLM, "secondJudgeLLM", "SecondJudgeLLM", "nefield", "judgeLLM")
		}
	}
}

// Validate checks a request struct against its validate tags. Rule
// violations come back as *ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating request: %w", err)
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Problems = append(ve.Problems, describe(fe))
	}
	return ve
}

// ValidateResults validates a lookup request for the given mode.
func ValidateResults(req model.ResultsRequest, mode model.EvalMode) error {
	err := Validate(req)
	var ve *ValidationError
	if err != nil && !errors.As(err, &ve) {
		return err
	}
	if mode == model.ModeLLM && !req.ContextOnly && !req.ResponseOnly && req.JudgeLLM == "" {
		if ve == nil {
			ve = &ValidationError{}
		}
		ve.Problems = append(ve.Problems, "judgeLLM is required")
	}
	if ve != nil {
		return ve
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s item(s)", field, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
