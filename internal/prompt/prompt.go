// Package prompt turns user and conversation context into text prompts for
// the generation API and post-processes what comes back. Everything here is
// pure: no I/O and deterministic output for identical input.
package prompt

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the task appended to a prompt.
type Mode string

const (
	ModeChat       Mode = "chat"
	ModeReading    Mode = "reading"
	ModeSuggestion Mode = "suggestion"
	ModeDaily      Mode = "daily"
)

// Profile is the self-reported context a user shares.
type Profile struct {
	Nickname   string
	BirthDate  *time.Time
	BirthTime  string
	BirthPlace string
	Gender     string
	Concern    string
}

// Turn is one chat message. Role is "user", "assistant" or "system".
type Turn struct {
	Role    string
	Content string
}

// UnlockedResult is a reading the user has already paid to reveal.
type UnlockedResult struct {
	Title string
	Text  string
}

type Context struct {
	Profile          Profile
	CounterpartyName string
	History          []Turn
	Unlocked         []UnlockedResult
	Now              time.Time
}

const (
	defaultUserName = "Guest"
	// unlockedExcerptRunes bounds how much of each past reading is replayed.
	unlockedExcerptRunes = 400
)

// ReadingMarkers are the sections requested from a reading.
var ReadingMarkers = []string{"TITLE", "PREVIEW", "DETAIL"}

// ReportMarkers are the sections requested from a daily fortune.
var ReportMarkers = []string{"OVERALL", "LOVE", "WORK", "MONEY", "HEALTH", "LUCKY", "ADVICE"}

func BuildChatPrompt(base string, c Context, latest string) string {
	return Build(base, c, latest, ModeChat)
}

// BuildReadingPrompt asks for a gated reading on topic.
func BuildReadingPrompt(base string, c Context, topic string) string {
	return Build(base, c, topic, ModeReading)
}

// BuildSuggestionPrompt asks for a follow-up after an unlock. unlockedTitle
// names the reading that was just revealed.
func BuildSuggestionPrompt(base string, c Context, unlockedTitle string) string {
	return Build(base, c, unlockedTitle, ModeSuggestion)
}

func BuildDailyFortunePrompt(base string, c Context) string {
	return Build(base, c, "", ModeDaily)
}

// Build renders the base instructions followed by the context blocks and the
// mode's task. Empty blocks are omitted.
func Build(base string, c Context, latest string, mode Mode) string {
	var b strings.Builder

	if s := strings.TrimSpace(Render(base, c)); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}

	b.WriteString("## Current date and time\n")
	b.WriteString(c.Now.Format("2006-01-02 (Mon) 15:04"))
	b.WriteString("\n\n")

	if s := formatProfile(c.Profile, c.Now); s != "" {
		b.WriteString("## About the user\n")
		b.WriteString(s)
		b.WriteString("\n")
	}

	if len(c.Unlocked) > 0 {
		b.WriteString("## Readings the user has unlocked\n")
		for _, r := range c.Unlocked {
			fmt.Fprintf(&b, "### %s\n%s\n\n", orDefault(r.Title, "Untitled"), Preview(r.Text, unlockedExcerptRunes))
		}
	}

	if len(c.History) > 0 && mode != ModeDaily {
		b.WriteString("## Conversation so far\n")
		for _, t := range c.History {
			fmt.Fprintf(&b, "%s: %s\n", speaker(t.Role, c), strings.TrimSpace(t.Content))
		}
		b.WriteString("\n")
	}

	switch mode {
	case ModeChat:
		b.WriteString("## Latest message from the user\n")
		b.WriteString(strings.TrimSpace(latest))
		b.WriteString("\n\n## Task\n")
		fmt.Fprintf(&b, "Reply as %s in two to four short paragraphs of plain text. Do not use headings or lists.\n", counterpartyName(c))
	case ModeReading:
		b.WriteString("## Reading topic\n")
		b.WriteString(orDefault(strings.TrimSpace(latest), "General outlook"))
		b.WriteString("\n\n## Task\n")
		fmt.Fprintf(&b, "Write a detailed reading as %s. Answer in exactly these sections:\n", counterpartyName(c))
		b.WriteString("[TITLE]\none line\n[PREVIEW]\ntwo sentences that tease the reading without revealing it\n[DETAIL]\nthe full reading\n")
	case ModeSuggestion:
		b.WriteString("## Just unlocked\n")
		b.WriteString(orDefault(strings.TrimSpace(latest), "a reading"))
		b.WriteString("\n\n## Task\n")
		fmt.Fprintf(&b, "As %s, suggest one natural follow-up question the user could ask next, in one or two friendly sentences.\n", counterpartyName(c))
	case ModeDaily:
		b.WriteString("## Task\n")
		b.WriteString("Write today's fortune for the user. Answer in exactly these sections, each one to three sentences:\n")
		for _, m := range ReportMarkers {
			fmt.Fprintf(&b, "[%s]\n", m)
		}
	}
	return b.String()
}

// Render substitutes the supported placeholders in base instructions.
func Render(base string, c Context) string {
	return strings.NewReplacer(
		"{{user_name}}", userName(c.Profile),
		"{{counterparty_name}}", counterpartyName(c),
		"{{today}}", c.Now.Format("2006-01-02"),
		"{{now}}", c.Now.Format("2006-01-02 15:04"),
	).Replace(base)
}

func formatProfile(p Profile, now time.Time) string {
	var b strings.Builder
	line := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	line("Name", p.Nickname)
	if p.BirthDate != nil {
		line("Birth date", fmt.Sprintf("%s (age %d)", p.BirthDate.Format("2006-01-02"), age(*p.BirthDate, now)))
	}
	line("Birth time", p.BirthTime)
	line("Birth place", p.BirthPlace)
	line("Gender", p.Gender)
	line("Current concern", p.Concern)
	return b.String()
}

func age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func speaker(role string, c Context) string {
	switch role {
	case "assistant":
		return counterpartyName(c)
	case "system":
		return "Notice"
	default:
		return userName(c.Profile)
	}
}

func userName(p Profile) string {
	return orDefault(strings.TrimSpace(p.Nickname), defaultUserName)
}

func counterpartyName(c Context) string {
	return orDefault(strings.TrimSpace(c.CounterpartyName), "the fortune teller")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
