package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ledgerly/backend/internal/domain/identity"
)

// Custom binding validators shared by all handlers in this package.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return identity.ValidatePhone(fl.Field().String()) == nil
		})
	}
}
