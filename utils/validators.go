package utils

import (
	"sync"

	"lifeloop/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("frequency", ValidateFrequencyRule)
	v.RegisterValidation("kind", ValidateKindRule)
}

// Validator returns the shared validator, also registering the custom rules
// with gin's binding engine.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		RegisterCustomValidators(validate)
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			RegisterCustomValidators(v)
		}
	})
	return validate
}

func ValidateFrequencyRule(fl validator.FieldLevel) bool {
	return model.Frequency(fl.Field().String()).IsValid()
}

func ValidateKindRule(fl validator.FieldLevel) bool {
	return model.Kind(fl.Field().String()).IsValid()
}

// ValidateItem checks a stored item before the engine acts on it.
func ValidateItem(item *model.RecurringItem) error {
	if item == nil {
		return model.NewError(model.KindValidation, model.ReasonInvalidItem, "", "item is missing")
	}
	if err := Validator().Struct(item); err != nil {
		return model.NewError(model.KindValidation, model.ReasonInvalidItem, item.ItemID, "invalid item: %v", err)
	}
	if item.Streaks.Daily < 0 || item.Streaks.Weekly < 0 || item.Streaks.Monthly < 0 {
		return model.NewError(model.KindValidation, model.ReasonNegativeStreak, item.ItemID, "streak counters must not be negative")
	}
	if item.Kind == model.KindHabit && item.Habit == nil {
		return model.NewError(model.KindValidation, model.ReasonInvalidItem, item.ItemID, "habit is missing its amounts")
	}
	return nil
}
