package pipeline

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of the date range bounds.
const DateLayout = "2006-01-02"

// Selection is the user's choice for one interaction. It is passed
// explicitly into every Run; the engines keep no state between calls.
type Selection struct {
	DateColumn     string   `json:"date_column,omitempty"`
	DateFrom       string   `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo         string   `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CategoryColumn string   `json:"category_column,omitempty"`
	Categories     []string `json:"categories,omitempty" validate:"omitempty,dive,required"`
	ValueColumn    string   `json:"value_column,omitempty"`
	GroupBy        []string `json:"group_by,omitempty" validate:"omitempty,unique,dive,required"`
	Chart          string   `json:"chart,omitempty" validate:"omitempty,oneof=bars lines pie"`
}

// WithDefaults fills the distinguished column names and chart type when unset.
func (s Selection) WithDefaults(dateColumn, categoryColumn string) Selection {
	if s.DateColumn == "" {
		s.DateColumn = dateColumn
	}
	if s.CategoryColumn == "" {
		s.CategoryColumn = categoryColumn
	}
	if s.Chart == "" {
		s.Chart = "bars"
	}
	return s
}

func (s Selection) dateRange() (from, to *time.Time) {
	if t, err := time.Parse(DateLayout, s.DateFrom); err == nil {
		from = &t
	}
	if t, err := time.Parse(DateLayout, s.DateTo); err == nil {
		to = &t
	}
	return from, to
}

// FieldError is one failed selection constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every failed constraint of a selection.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return "invalid selection: " + strings.Join(msgs, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func selectionValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the selection's shape. It does not look at any dataset.
func Validate(s Selection) error {
	var out []FieldError
	if err := selectionValidator().Struct(s); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Message: formatFieldError(fe)})
		}
	}
	from, to := s.dateRange()
	if from != nil && to != nil && to.Before(*from) {
		out = append(out, FieldError{Field: "date_to", Message: "date_to must not be before date_from"})
	}
	if len(out) > 0 {
		return &ValidationError{Errors: out}
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must not contain empty values", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must not repeat a column", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
