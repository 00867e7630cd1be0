package coaching

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carmody/pacecoach/internal/llm"
)

// WeeklyResult is a generated weekly message: subject line plus body.
type WeeklyResult struct {
	Subject string
	Body    string
}

// DailyResult is a generated daily message: body only. The daily flow has no
// subject by contract.
type DailyResult struct {
	Body string
}

// GenerateWeekly builds the weekly prompt from the summary and persona,
// invokes the provider once, and splits the response into subject and body.
// No retries here — transient upstream failures are the caller's concern.
func GenerateWeekly(ctx context.Context, db *sql.DB, provider llm.Provider, sum *WeekSummary, coach ResolvedCoach) (*WeeklyResult, error) {
	userPrompt, err := buildWeeklyUserPrompt(sum)
	if err != nil {
		return nil, fmt.Errorf("coaching: build weekly prompt: %w", err)
	}

	opts := llm.Options{
		Temperature: llm.TemperatureFromSettings(db),
		MaxTokens:   llm.MaxTokensFromSettings(db),
	}
	resp, err := provider.Generate(ctx, buildSystemPrompt(coach, true), userPrompt, opts)
	if err != nil {
		return nil, err
	}

	subject, body := splitSubjectBody(resp.Content)
	if subject == "" {
		subject = "Your weekly check-in from " + coach.Name
	}
	return &WeeklyResult{Subject: subject, Body: body}, nil
}

// GenerateDaily builds the daily prompt and invokes the provider once.
func GenerateDaily(ctx context.Context, db *sql.DB, provider llm.Provider, sum *DaySummary, coach ResolvedCoach) (*DailyResult, error) {
	userPrompt, err := buildDailyUserPrompt(sum)
	if err != nil {
		return nil, fmt.Errorf("coaching: build daily prompt: %w", err)
	}

	opts := llm.Options{
		Temperature: llm.TemperatureFromSettings(db),
		MaxTokens:   llm.MaxTokensFromSettings(db),
	}
	resp, err := provider.Generate(ctx, buildSystemPrompt(coach, false), userPrompt, opts)
	if err != nil {
		return nil, err
	}

	return &DailyResult{Body: strings.TrimSpace(resp.Content)}, nil
}

func buildSystemPrompt(coach ResolvedCoach, weekly bool) string {
	var b strings.Builder

	if coach.Persona != "" {
		b.WriteString(coach.Persona)
	} else {
		b.WriteString("You are a fitness coach named ")
		b.WriteString(coach.Name)
		b.WriteString(". Be supportive and concrete.")
	}
	b.WriteString("\n\n")

	if weekly {
		b.WriteString(`You are writing the user's weekly coaching message based on their
logged data for the week. Speak directly to the user in your coaching voice.

OUTPUT FORMAT:
- First line: "Subject: <a short subject line for the message>"
- Blank line
- Then the message body (3-6 short paragraphs).

Cover: how the week went against their goal, one thing to keep doing, one
thing to change next week. Reference their actual numbers — do not invent
data that is not in the summary.
`)
	} else {
		b.WriteString(`You are writing the user's short daily coaching message based on
their logged data for the day. Speak directly to the user in your coaching
voice. Output only the message body — no subject line, no preamble, 2-4
sentences. Reference their actual numbers — do not invent data that is not
in the summary. If the day has little data, encourage logging rather than
guessing.
`)
	}

	if len(coach.IntensityOverrides) > 0 {
		b.WriteString("\nTONE NOTES:\n")
		for level, note := range coach.IntensityOverrides {
			b.WriteString(fmt.Sprintf("- %s intensity: %s\n", level, note))
		}
	}

	return b.String()
}

func buildWeeklyUserPrompt(sum *WeekSummary) (string, error) {
	summaryJSON, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("WEEK OF %s THROUGH %s:\n", sum.WeekStart, sum.WeekEnd))
	b.Write(summaryJSON)
	b.WriteString("\n\nWrite this week's coaching message now.")
	return b.String(), nil
}

func buildDailyUserPrompt(sum *DaySummary) (string, error) {
	summaryJSON, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("DAY %s:\n", sum.Date))
	b.Write(summaryJSON)
	b.WriteString("\n\nWrite today's coaching message now.")
	return b.String(), nil
}

// splitSubjectBody parses the "Subject: ..." first line out of a weekly
// response. Responses without one come back with an empty subject and the
// whole content as body.
func splitSubjectBody(content string) (subject, body string) {
	content = strings.TrimSpace(content)
	line, rest, found := strings.Cut(content, "\n")
	if after, ok := strings.CutPrefix(strings.TrimSpace(line), "Subject:"); ok {
		subject = strings.TrimSpace(after)
		if found {
			body = strings.TrimSpace(rest)
		}
		return subject, body
	}
	return "", content
}
