package strategy

import (
	"fmt"
	"strings"
)

// ConfigError reports an unusable strategy version or instance
// configuration. It is fatal only to the version/instance it names.
type ConfigError struct {
	Subject    string
	Violations []string
}

func (e *ConfigError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("strategy config invalid: %s", e.Subject)
	}
	return fmt.Sprintf("strategy config invalid: %s: %s", e.Subject, strings.Join(e.Violations, "; "))
}

// MappingError reports a planned action that cannot become an
// execution intent. Carries enough context to point at the offending
// action.
type MappingError struct {
	Action string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map action %q to intent: %s", e.Action, e.Reason)
}
