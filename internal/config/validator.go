package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Sentinel-Gate/paapigate/internal/domain/auth"
	"github.com/Sentinel-Gate/paapigate/internal/domain/paapi"
)

// RegisterCustomValidators registers paapi-gate validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"marketplace": validateMarketplace,
		"key_hash":    validateKeyHash,
		"duration":    validateDuration,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// validateMarketplace accepts the supported storefront hosts.
func validateMarketplace(fl validator.FieldLevel) bool {
	_, err := paapi.LookupMarketplace(fl.Field().String())
	return err == nil
}

// validateKeyHash accepts argon2id PHC strings and SHA-256 hex digests.
func validateKeyHash(fl validator.FieldLevel) bool {
	hash := fl.Field().String()
	switch auth.DetectHashType(hash) {
	case auth.HashTypeArgon2id:
		return true
	case auth.HashTypeSHA256:
		return auth.DetectHashType(auth.NormalizeHash(hash)) == auth.HashTypeSHA256
	default:
		return false
	}
}

// validateDuration accepts strings parseable by time.ParseDuration.
func validateDuration(fl validator.FieldLevel) bool {
	_, err := time.ParseDuration(fl.Field().String())
	return err == nil
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateUniqueKeyNames(); err != nil {
		return err
	}

	return nil
}

// validateUniqueKeyNames ensures API key names identify a single key, since
// the name is the rate limit key.
func (c *Config) validateUniqueKeyNames() error {
	seen := make(map[string]int, len(c.Auth.APIKeys))
	for i, key := range c.Auth.APIKeys {
		if j, exists := seen[key.Name]; exists {
			return fmt.Errorf("auth.api_keys[%d]: name %q already used by api_keys[%d]", i, key.Name, j)
		}
		seen[key.Name] = i
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "file":
		return fmt.Sprintf("%s must be an existing file", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "duration":
		return fmt.Sprintf("%s must be a duration such as \"30s\" or \"5m\"", field)
	case "marketplace":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(paapi.MarketplaceNames(), " "))
	case "key_hash":
		return fmt.Sprintf("%s must be an argon2id hash or a sha256 hex digest", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
