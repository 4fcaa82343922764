package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}

	je, ok := as(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(je.Message)
	sb.WriteString("\n")

	if je.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(je.Suggestion)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", je.Code))
	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	je, ok := as(err)
	if !ok {
		je = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", je.Message))
	if je.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", je.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", je.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	je, ok := as(err)
	if !ok {
		je = Wrap(ErrCodeInternal, err)
	}

	out := jsonError{
		Code:       je.Code,
		Message:    je.Message,
		Category:   string(je.Category),
		Severity:   string(je.Severity),
		Details:    je.Details,
		Suggestion: je.Suggestion,
		Retryable:  je.Retryable,
	}
	if je.Cause != nil {
		out.Cause = je.Cause.Error()
	}

	return json.Marshal(out)
}

// LogAttrs flattens an error into slog key/value pairs.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	je, ok := as(err)
	if !ok {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", je.Code,
		"error", je.Message,
		"category", string(je.Category),
	}
	if je.Cause != nil {
		attrs = append(attrs, "cause", je.Cause.Error())
	}
	for k, v := range je.Details {
		attrs = append(attrs, "detail_"+k, v)
	}
	return attrs
}
