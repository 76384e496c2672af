package helper

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"
)

// NewHTTPHelper builds a helper with an English validation translator.
func NewHTTPHelper(appName string, defaultPageSize, maxPageSize int) (*HTTPHelper, error) {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New()
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &HTTPHelper{
		Validate:        validate,
		Translator:      trans,
		AppName:         appName,
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}, nil
}

// ValidateStruct runs the validate tags of req.
func (u *HTTPHelper) ValidateStruct(req interface{}) error {
	return u.Validate.Struct(req)
}
