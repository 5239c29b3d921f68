// Package validation wraps go-playground/validator for configuration structs.
//
// Field names in errors are taken from mapstructure, yaml or json tags so
// messages point at the configuration key:
//
//	type Config struct {
//	    MaxRetries int `mapstructure:"max_retries" validate:"min=1"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
package validation
