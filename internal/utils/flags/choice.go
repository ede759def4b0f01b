package flags

import (
	"fmt"
	"strings"
)

const (
	choiceUsageEmptyTemplate = "`%s`"
	choiceUsageFullTemplate  = "`%s` %s"
)

// FormatChoiceUsage builds a usage string listing the accepted values with the
// default option capitalized inside the placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	placeholder := buildChoicePlaceholder(defaultChoice, choices)
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, trimmedDescription)
}

func buildChoicePlaceholder(defaultChoice string, choices []string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	seen := make(map[string]struct{}, len(choices))

	var placeholder strings.Builder
	placeholder.WriteString("<")
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 {
			continue
		}

		normalizedChoice := strings.ToLower(trimmedChoice)
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}

		if len(seen) > 1 {
			placeholder.WriteString("|")
		}
		if normalizedChoice == normalizedDefault {
			placeholder.WriteString(strings.ToUpper(trimmedChoice))
			continue
		}
		placeholder.WriteString(trimmedChoice)
	}
	placeholder.WriteString(">")

	return placeholder.String()
}
