// Package validation checks configuration structs.
//
// Validate runs go-playground/validator over `validate` struct tags and
// names failing fields by their mapstructure/yaml key. Validator collects
// cross-field checks by hand. Both report an INVALID_INPUT errors.AppError.
//
//	type Config struct {
//	    URL string `mapstructure:"url" validate:"required,url"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
package validation
