// Package redact strips credentials, connection strings, file paths, SQL and
// stack traces from text before it is logged or returned in an error envelope.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules are applied in order; later rules see the output of earlier ones.
var rules = []rule{
	{regexp.MustCompile(`(?:goroutine \d+ \[|panic: )[\s\S]*`), RedactedStackPlaceholder},
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|mongodb(?:\+srv)?)://[^@\s/]+@`), "${1}://" + RedactedCredentialPlaceholder + "@"},
	{regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`), RedactedJWTPlaceholder},
	{regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*[^\s&]+`), "${1}=" + RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret|dsn)\s*[=:]\s*[\w\-.~+/:@]{8,}`), "${1}=" + RedactedKeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), RedactedEmailPlaceholder},
	{regexp.MustCompile(`(?i)\b(?:SELECT\s.+?\sFROM|INSERT\s+INTO|UPDATE\s+\w+\s+SET|DELETE\s+FROM)\b.*`), RedactedSQLPlaceholder},
	{regexp.MustCompile(`(?:/[\w.-]+){2,}`), RedactedPathPlaceholder},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
