package util

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/core/percentile"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("bgentity", bgEntity)
	validate.RegisterValidation("timeperiod", timePeriod)
	validate.RegisterValidation("mmrpercentile", mmrPercentile)
	validate.RegisterValidation("contentfilter", contentFilter)
	validate.RegisterCustomTypeFunc(nullIntValuer, null.Int{})
	validate.RegisterCustomTypeFunc(nullStringValuer, null.String{})

	return validate
}

func bgEntity(fl validator.FieldLevel) bool {
	return shard.Entity(fl.Field().String()).Valid()
}

func timePeriod(fl validator.FieldLevel) bool {
	return model.TimePeriod(fl.Field().String()).Valid()
}

func mmrPercentile(fl validator.FieldLevel) bool {
	return percentile.IsSupported(int(fl.Field().Int()))
}

func contentFilter(fl validator.FieldLevel) bool {
	_, err := model.ParseFilter(fl.Field().String())
	return err == nil
}

func nullIntValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.Int); ok {
		return valuer.Int64
	}

	return nil
}

func nullStringValuer(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(null.String); ok {
		return valuer.String
	}

	return nil
}
