package rekuest

import (
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"exusiai.dev/bgstats/internal/pkg/bgerr"
	"exusiai.dev/bgstats/internal/util"
)

var (
	Validate = util.NewValidator()

	translator ut.Translator
)

func init() {
	uni := ut.New(en.New())
	translator, _ = uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(Validate, translator); err != nil {
		log.Warn().Err(err).Str("locale", "en").Msg("could not register translation")
	}

	messages := map[string]string{
		"bgentity":      "{0} must be one of hero, quest, reward, trinket, card",
		"timeperiod":    "{0} must be one of all-time, past-three, past-seven, last-patch",
		"mmrpercentile": "{0} must be one of 100, 50, 25, 10, 1",
		"contentfilter": "{0} must be all, a tribe subset like 1-2-3-4-5 or anomaly-<cardId>",
	}
	for tag, message := range messages {
		tag, message := tag, message
		err := Validate.RegisterTranslation(tag, translator, func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		})
		if err != nil {
			log.Warn().Err(err).Str("tag", tag).Msg("could not register translation")
		}
	}
}

type ErrorResponse struct {
	Field     string `json:"field,omitempty"`
	Violation string `json:"violation"`
	Message   string `json:"message"`
}

func translate(ve validator.ValidationErrors) []*ErrorResponse {
	trans := make([]*ErrorResponse, 0, len(ve))
	for _, fe := range ve {
		trans = append(trans, &ErrorResponse{
			Field:     fe.Namespace(),
			Violation: fe.Tag(),
			Message:   strings.TrimSpace(fe.Translate(translator)),
		})
	}
	return trans
}

// Violations validates s and returns the translated violations, or nil.
func Violations(s any) ([]*ErrorResponse, error) {
	err := Validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, err
	}
	return translate(ve), nil
}

// ValidStruct returns a bgerr invalid-request error carrying the violations
// when s does not validate.
func ValidStruct(s any) error {
	violations, err := Violations(s)
	if err != nil {
		return err
	}
	if violations != nil {
		return bgerr.NewInvalidViolations(violations)
	}
	return nil
}

// ValidBody parses the request body into dest, which shall always be a
// pointer, and validates it.
func ValidBody(ctx *fiber.Ctx, dest any) error {
	if err := ctx.BodyParser(dest); err != nil {
		return bgerr.ErrInvalidReq.Msg("invalid request: %s", err)
	}
	return ValidStruct(dest)
}
