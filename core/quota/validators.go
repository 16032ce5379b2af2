package quota

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/tier"
)

var (
	tierTag  = "tier"
	tierText = "{0} must be one of Starter, Growth, Scale"
)

// InitValidators registers the quota package validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(tierTag, tierValidation)
	core.RegisterCustomTranslation(validate, translator, tierTag, tierText)
}

func tierValidation(fl validator.FieldLevel) bool {
	return tier.Tier(fl.Field().String()).Valid()
}
