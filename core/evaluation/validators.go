package evaluation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/incubaapp/incuba/core"
)

var (
	evalTypeTag  = "evaltype"
	evalTypeText = "{0} must be one of ccc, jurado"
)

// InitValidators registers the evaluation package validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(evalTypeTag, evalTypeValidation)
	core.RegisterCustomTranslation(validate, translator, evalTypeTag, evalTypeText)
}

func evalTypeValidation(fl validator.FieldLevel) bool {
	switch Type(fl.Field().String()) {
	case TypeCCC, TypeJury:
		return true
	}
	return false
}
