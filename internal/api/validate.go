package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// payloadValidator checks decoded responses before they reach the rest of the client.
type payloadValidator struct {
	core  *validator.Validate
	trans ut.Translator
}

func newPayloadValidator() *payloadValidator {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &payloadValidator{core: validate, trans: trans}
}

// Struct returns nil when s is valid, otherwise an error listing every failed field.
func (v *payloadValidator) Struct(s any) error {
	err := v.core.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", trimNamespace(fe.Namespace()), fe.Translate(v.trans)))
	}
	return fmt.Errorf("invalid payload: %s", strings.Join(msgs, "; "))
}

func trimNamespace(ns string) string {
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
