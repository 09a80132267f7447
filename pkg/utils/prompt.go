package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ExtractNetworkSection pulls the per-network section out of a content-plan
// prompt. Sections are introduced by a bracket header of the form
// "[<network> Settings]" (case-insensitive) and run until the next bracket
// header or the end of the text.
func ExtractNetworkSection(prompt, network string) (string, bool) {
	header := fmt.Sprintf("[%s Settings]", network)
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(header) + `[ \t]*((?s).*?)(?:\n\[|\z)`)

	match := re.FindStringSubmatch(prompt)
	if match == nil {
		return "", false
	}

	section := strings.TrimSpace(match[1])
	if section == "" {
		return "", false
	}
	return section, true
}
