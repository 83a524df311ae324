package compiler

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"loom/css"
	"loom/eval"
	"loom/expr"
	"loom/runtime"
	"loom/script"
)

// Mode selects how the artifact is packaged
type Mode string

const (
	// ModeRegister defines the component in a registry as part of compiling
	ModeRegister Mode = "register"
	// ModeModule only produces the definition; the caller registers it
	ModeModule Mode = "module"
)

// DerivedOption declares a derived value from outside the script
type DerivedOption struct {
	Name string `yaml:"name" validate:"required,jsident"`
	Expr string `yaml:"expr" validate:"required"`
}

// Options configures one compilation
type Options struct {
	Tag          string          `validate:"required,customelement"`
	Mode         Mode            `validate:"omitempty,oneof=register module"`
	Props        []string        `validate:"dive,jsident"`
	Derived      []DerivedOption `validate:"dive"`
	Dev          bool
	Debug        bool
	StrictCycles bool

	Analyzer script.Analyzer   `validate:"-"` // default script.Default
	CSS      css.Builder       `validate:"-"` // default css.Purge
	Registry *runtime.Registry `validate:"-"` // register mode target, default DefaultRegistry()
	Globals  *eval.Registry    `validate:"-"` // default eval.DefaultRegistry()
	Logger   *log.Logger       `validate:"-"` // default log.Default()
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeRegister
	}
	if o.Analyzer == nil {
		o.Analyzer = script.Default{}
	}
	if o.CSS == nil {
		o.CSS = css.Purge{}
	}
	if o.Registry == nil && o.Mode == ModeRegister {
		o.Registry = DefaultRegistry()
	}
	if o.Globals == nil {
		o.Globals = eval.DefaultRegistry()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

var defaultRegistry = runtime.NewRegistry()

// DefaultRegistry is the process-wide registry register mode defines into
// when Options.Registry is nil
func DefaultRegistry() *runtime.Registry {
	return defaultRegistry
}

// ============================================================================
// VALIDATION
// ============================================================================

var customElementName = regexp.MustCompile(`^[a-z][a-z0-9._]*-[a-z0-9._-]*$`)

// Names the HTML standard reserves even though they contain a hyphen
var reservedElementNames = map[string]bool{
	"annotation-xml":   true,
	"color-profile":    true,
	"font-face":        true,
	"font-face-src":    true,
	"font-face-uri":    true,
	"font-face-format": true,
	"font-face-name":   true,
	"missing-glyph":    true,
}

// IsCustomElementName reports whether tag is a valid custom element name:
// lowercase, starting with a letter and containing a hyphen
func IsCustomElementName(tag string) bool {
	return customElementName.MatchString(tag) && !reservedElementNames[tag]
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("customelement", func(fl validator.FieldLevel) bool {
		return IsCustomElementName(fl.Field().String())
	})
	v.RegisterValidation("jsident", func(fl validator.FieldLevel) bool {
		return expr.IsIdentifier(fl.Field().String())
	})
	return v
}

// Validate checks a struct carrying validate tags, including the
// customelement and jsident rules, and flattens the failures into one error
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("invalid options: %s", strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "customelement":
		return fmt.Sprintf("%s %q is not a valid custom element name (lowercase, starts with a letter, contains a hyphen)", fe.Namespace(), fe.Value())
	case "jsident":
		return fmt.Sprintf("%s %q is not an identifier", fe.Namespace(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of: %s", fe.Namespace(), fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}
