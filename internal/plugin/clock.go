package plugin

import (
	"context"
	"regexp"
	"strings"
	"time"
)

var clockTrigger = regexp.MustCompile(`(?i)\bwhat(?:'s| is)? the (?:current )?(time|date)\b`)

// ClockPlugin reports the current time or date.
type ClockPlugin struct {
	now func() time.Time
}

// NewClockPlugin creates a ClockPlugin using the wall clock.
func NewClockPlugin() *ClockPlugin {
	return &ClockPlugin{now: time.Now}
}

func (p *ClockPlugin) Name() string        { return "clock" }
func (p *ClockPlugin) Description() string { return "Reports the current date and time" }

// Match claims "what is the time" / "what's the current date" phrasings,
// returning which of the two was asked.
func (p *ClockPlugin) Match(input string) (string, bool) {
	m := clockTrigger.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

func (p *ClockPlugin) Run(_ context.Context, args string) (string, error) {
	now := p.now().UTC()
	if args == "date" {
		return "Today is " + now.Format("Monday, January 2, 2006") + " (UTC).", nil
	}
	return "The current time is " + now.Format("15:04") + " UTC.", nil
}
