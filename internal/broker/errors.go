package broker

import "fmt"

// Error taxonomy for the broker boundary. Per-account failures carry
// one of these types so batch callers can classify without string
// matching.

// UnsupportedBrokerError means no connector exists for an account's
// declared kind. Fatal for that account, never for the batch.
type UnsupportedBrokerError struct {
	AccountCode string
	Kind        string
}

func (e *UnsupportedBrokerError) Error() string {
	return fmt.Sprintf("unsupported broker kind %q for account %q", e.Kind, e.AccountCode)
}

// ConfigError means connection settings are missing or invalid.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "broker config: " + e.Reason
}

// ConnectionError means the transport could not connect or timed out.
// Retryable by the caller.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker connection: %s: %v", e.Reason, e.Err)
	}
	return "broker connection: " + e.Reason
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DataMappingError indicates schema drift in a raw payload. Surfaced,
// never silently dropped.
type DataMappingError struct {
	Field  string
	Reason string
}

func (e *DataMappingError) Error() string {
	return fmt.Sprintf("broker data mapping: field %q: %s", e.Field, e.Reason)
}

// RateLimitError signals the caller should back off before retrying.
type RateLimitError struct {
	Reason string
}

func (e *RateLimitError) Error() string {
	return "broker rate limit: " + e.Reason
}
