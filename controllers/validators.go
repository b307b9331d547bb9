package controllers

import (
	"fmt"
	"sync"

	"dentalclinic-backend/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the "fdi" and "sex" tags to gin's binding validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("fdi", validateTooth); err != nil {
			return
		}
		err = v.RegisterValidation("sex", validateSex)
	})
	return err
}

func validateTooth(fl validator.FieldLevel) bool {
	return models.IsValidTooth(fl.Field().String())
}

func validateSex(fl validator.FieldLevel) bool {
	_, err := models.ParseSex(fl.Field().String())
	return err == nil
}
