package http

import (
	"omnipost/domain/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the "platform" tag to gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		_, err := model.ParsePlatform(fl.Field().String())
		return err == nil
	})
}
