package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// KnownArtifacts are literal formatting instructions the model sometimes
// echoes back verbatim.
var KnownArtifacts = []string{
	"[Output format]",
	"[Format instructions]",
	"[End of response]",
	"<response>",
	"</response>",
	"(plain text only)",
	"(no markdown)",
	"## Task",
	"## Latest message from the user",
}

var (
	roleLabelRe  = regexp.MustCompile(`(?m)^[ \t]*(?:Assistant|AI|Fortune teller)[ \t]*:[ \t]*`)
	codeFenceRe  = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z]*[ \t]*$")
	lengthHintRe = regexp.MustCompile(`(?i)\(\s*(?:about|max(?:imum)?|up to)?\s*\d+\s*(?:characters|chars|words)\s*(?:or less)?\s*\)`)
	trailingWsRe = regexp.MustCompile(`[ \t]+\n`)
	blankRunRe   = regexp.MustCompile(`\n{4,}`)
)

// Clean strips echoed formatting artifacts from a model response, collapses
// runs of four or more newlines to exactly three and trims the result.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, a := range KnownArtifacts {
		text = strings.ReplaceAll(text, a, "")
	}
	text = roleLabelRe.ReplaceAllString(text, "")
	text = codeFenceRe.ReplaceAllString(text, "")
	text = lengthHintRe.ReplaceAllString(text, "")
	text = trailingWsRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n\n")
	return strings.TrimSpace(text)
}

// TruncateHistory returns the most recent n turns, oldest first. The input
// slice is not modified.
func TruncateHistory(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) == 0 {
		return nil
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Preview cuts text to at most n runes, appending an ellipsis when cut.
func Preview(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
