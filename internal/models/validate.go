package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/magfest/uber/internal/errs"
)

var validate = validator.New()

// Check validates m before it is written: every choice column must hold
// one of its options (unless it allows unspecified values) and the
// `validate` struct tags must pass.
func Check(m Model) error {
	ve := errs.NewValidation(fmt.Sprintf("%s is invalid", Which(m)))
	for _, c := range Columns(m) {
		if c.Kind != KindChoice || c.AllowUnspecified {
			continue
		}
		v := c.Value(m)
		if v == nil {
			continue
		}
		n, _ := asInt(v)
		if !c.Opts().Has(n) {
			ve.Add(c.Name, fmt.Sprintf("%d not a valid option out of %s", n, describeOpts(c)))
		}
	}

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			ve.Add(columnName(m, fe.StructField()), tagMessage(fe))
		}
	}
	return ve.OrNil()
}

func describeOpts(c Column) string {
	parts := make([]string, 0, len(c.Opts()))
	for _, o := range c.Opts() {
		parts = append(parts, fmt.Sprintf("%d: %s", o.Val, o.Desc))
	}
	return c.Choices + " {" + strings.Join(parts, ", ") + "}"
}

func columnName(m Model, field string) string {
	for _, c := range Columns(m) {
		if c.Field == field {
			return c.Name
		}
	}
	return Naming.ColumnName("", field)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Enter a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "required":
		return "is required"
	}
	return "failed " + fe.Tag() + " check"
}
