package prompt

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoSections means none of the requested markers appear in the text.
var ErrNoSections = errors.New("no section markers found")

// ParseSections splits text on [MARKER] headings and returns the body of each
// marker found, keyed by its upper-case name. Markers are matched case
// insensitively and may be wrapped in markdown bold. When a marker repeats,
// the first occurrence wins. Text before the first marker is discarded.
func ParseSections(text string, markers ...string) (map[string]string, error) {
	if len(markers) == 0 {
		return nil, ErrNoSections
	}
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	re := regexp.MustCompile(`(?i)\**\[(` + strings.Join(quoted, "|") + `)\]\**[ \t]*:?`)

	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, ErrNoSections
	}
	out := make(map[string]string, len(locs))
	for i, loc := range locs {
		name := strings.ToUpper(text[loc[2]:loc[3]])
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, dup := out[name]; dup {
			continue
		}
		out[name] = strings.TrimSpace(text[loc[1]:end])
	}
	return out, nil
}

// Report is a parsed daily fortune.
type Report struct {
	Overall string `json:"overall"`
	Love    string `json:"love"`
	Work    string `json:"work"`
	Money   string `json:"money"`
	Health  string `json:"health"`
	Lucky   string `json:"lucky"`
	Advice  string `json:"advice"`
}

// ParseReport extracts a daily fortune. Missing sections are left empty.
func ParseReport(text string) (Report, error) {
	s, err := ParseSections(text, ReportMarkers...)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Overall: s["OVERALL"],
		Love:    s["LOVE"],
		Work:    s["WORK"],
		Money:   s["MONEY"],
		Health:  s["HEALTH"],
		Lucky:   s["LUCKY"],
		Advice:  s["ADVICE"],
	}, nil
}

// Reading is a parsed gated reading.
type Reading struct {
	Title   string
	Preview string
	Detail  string
}

// ParseReading extracts the reading sections. Output without markers is
// kept whole as the detail with a truncated preview.
func ParseReading(text string, previewRunes int) Reading {
	s, err := ParseSections(text, ReadingMarkers...)
	if err != nil || s["DETAIL"] == "" {
		body := strings.TrimSpace(text)
		if err == nil {
			body = strings.TrimSpace(strings.Join([]string{s["PREVIEW"], s["DETAIL"]}, "\n\n"))
		}
		r := Reading{Title: s["TITLE"], Detail: body, Preview: s["PREVIEW"]}
		if r.Preview == "" {
			r.Preview = Preview(body, previewRunes)
		}
		return r
	}
	r := Reading{Title: s["TITLE"], Preview: s["PREVIEW"], Detail: s["DETAIL"]}
	if r.Preview == "" {
		r.Preview = Preview(r.Detail, previewRunes)
	}
	return r
}
