package plugin

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// mathTrigger matches inputs like "calculate 2 + 3 * 4" or
// "what is (10 - 4) / 2".
var mathTrigger = regexp.MustCompile(`(?i)^\s*(?:calculate|compute|what\s+is|eval(?:uate)?)\s+(.+?)\s*\??\s*$`)

// mathExpression accepts arithmetic only; anything else is left for
// retrieval to answer.
var mathExpression = regexp.MustCompile(`^[\d\s+\-*/%^().,]+$`)

// MathPlugin evaluates arithmetic expressions.
type MathPlugin struct{}

// NewMathPlugin creates a MathPlugin.
func NewMathPlugin() *MathPlugin { return &MathPlugin{} }

func (p *MathPlugin) Name() string        { return "math" }
func (p *MathPlugin) Description() string { return "Evaluates arithmetic expressions" }

// Match claims inputs with a calculation trigger followed by a purely
// arithmetic expression. "what is markdown" has the trigger but not the
// expression, so it falls through to retrieval.
func (p *MathPlugin) Match(input string) (string, bool) {
	m := mathTrigger.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}
	candidate := strings.TrimSpace(m[1])
	if candidate == "" || !mathExpression.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}

// Run evaluates args as an expression and formats the numeric result.
func (p *MathPlugin) Run(_ context.Context, args string) (string, error) {
	program, err := expr.Compile(args)
	if err != nil {
		return "", fmt.Errorf("invalid expression %q: %w", args, err)
	}
	result, err := expr.Run(program, nil)
	if err != nil {
		return "", fmt.Errorf("evaluating %q: %w", args, err)
	}

	var rendered string
	switch v := result.(type) {
	case int:
		rendered = strconv.Itoa(v)
	case float64:
		rendered = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		rendered = fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%s = %s", args, rendered), nil
}
