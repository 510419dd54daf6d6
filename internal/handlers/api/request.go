package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/spf13/cast"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	ErrInvalidBody = apperr.Validation("Invalid request body")
	ErrInvalidID   = apperr.Validation("Invalid id")
)

func init() {
	validate = validator.New()
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report json field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// parseBody decodes the request body into out and validates its struct tags.
func parseBody(ctx *fiber.Ctx, out any) error {
	if err := ctx.BodyParser(out); err != nil {
		return ErrInvalidBody
	}
	return validateStruct(out)
}

func validateStruct(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fieldErr.Translate(translator))
	}
	return apperr.Validation(strings.Join(messages, "; "))
}

// pageRequest reads page and limit from the query string. Bad values fall
// back to the defaults.
func pageRequest(ctx *fiber.Ctx) common.PageRequest {
	return common.PageRequest{
		Page:  cast.ToInt(ctx.Query("page")),
		Limit: cast.ToInt(ctx.Query("limit")),
	}.Normalize()
}

func paramID(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := cast.ToUintE(ctx.Params(name))
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
