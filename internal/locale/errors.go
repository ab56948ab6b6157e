package locale

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigNotFound is matched by errors.Is for any missing locale config.
var ErrConfigNotFound = errors.New("locale config not found")

// ConfigNotFoundError reports a locale without a configuration.
type ConfigNotFoundError struct {
	Code string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("no configuration for locale %q", e.Code)
}

// Is matches ErrConfigNotFound.
func (e *ConfigNotFoundError) Is(target error) bool {
	return target == ErrConfigNotFound
}

// InvalidConfigError reports a config file that is missing required keys.
type InvalidConfigError struct {
	Code   string
	Fields []string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid configuration for locale %q: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("invalid configuration for locale %q: missing or empty %s", e.Code, strings.Join(e.Fields, ", "))
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}
