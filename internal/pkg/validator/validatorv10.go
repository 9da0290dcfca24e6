package validator

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/datasprint/internal/pkg/strcase"
)

var ErrTranslatorNotFound = errors.New("translator not found")

// PasswordMaxBytes is the bcrypt input limit.
const PasswordMaxBytes = 72

// rule is a string tag with its English message. Tag names must not collide
// with the validator's built-in tags.
type rule struct {
	tag     string
	valid   func(s string) bool
	message string
}

var (
	phonePattern      = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,19}$`)
	personNamePattern = regexp.MustCompile(`^[\p{L} .'-]+$`)
)

var rules = []rule{
	{tag: "password", valid: validPassword, message: "{0} must be at least 6 characters and at most 72 bytes"},
	{tag: "phone", valid: phonePattern.MatchString, message: "{0} must be a valid phone number"},
	{tag: "personname", valid: personNamePattern.MatchString, message: "{0} can contain only letters, spaces and name punctuation"},
}

// validPassword counts characters for the minimum and bytes for the maximum.
func validPassword(s string) bool {
	return utf8.RuneCountInString(s) >= 6 && len(s) <= PasswordMaxBytes
}

// V10ValidationError maps a snake_case field path to its message.
type V10ValidationError map[string]string

func (e V10ValidationError) Error() string {
	if len(e) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(e))
	return string(b)
}

func (e V10ValidationError) Values() map[string]string {
	return e
}

type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewV10Validator registers the English messages and the password, phone
// and personname tags.
func NewV10Validator() (*V10Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	lang := en.New()
	trans, ok := ut.New(lang, lang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(v, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

func register(v *validator.Validate, trans ut.Translator, r rule) error {
	err := v.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.valid(s)
	})
	if err != nil {
		return err
	}

	return v.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error { return t.Add(r.tag, r.message, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return err
	}

	out := make(V10ValidationError, len(fes))
	for _, fe := range fes {
		out[fieldPath(fe)] = fe.Translate(v.trans)
	}
	return out
}

// fieldPath drops the root struct name: "RegisterInput.Members[0].Email"
// becomes "members[0].email".
func fieldPath(fe validator.FieldError) string {
	_, rest, ok := strings.Cut(fe.StructNamespace(), ".")
	if !ok || rest == "" {
		return strcase.ToLowerSnake(fe.Field())
	}

	segments := strings.Split(rest, ".")
	for i := range segments {
		segments[i] = strcase.ToLowerSnake(segments[i])
	}
	return strings.Join(segments, ".")
}
