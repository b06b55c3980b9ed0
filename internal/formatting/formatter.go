// Package formatting turns evaluation documents into report markdown, either
// deterministically or by asking an LLM to restructure the deterministic text.
package formatting

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Riolite55/performance-evaluation/internal/llm"
	"github.com/Riolite55/performance-evaluation/internal/prompts"
	"github.com/Riolite55/performance-evaluation/internal/rendering"
	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Formatter produces report markdown for a document
type Formatter interface {
	Format(ctx context.Context, doc *types.Document) (string, error)
}

// Strategy names accepted by New
const (
	StrategyDeterministic = "deterministic"
	StrategyLLM           = "llm"
)

// Deterministic renders the document with rendering.Markdown
type Deterministic struct{}

// Format implements Formatter
func (Deterministic) Format(_ context.Context, doc *types.Document) (string, error) {
	if doc == nil {
		return "", &rendering.RenderError{Message: "document is nil"}
	}
	return rendering.Markdown(doc), nil
}

// LLM asks a model to restructure the deterministic markdown. With Fallback
// set, a failed or empty answer yields the deterministic markdown instead.
type LLM struct {
	Client   llm.Client
	Tier     llm.ModelTier
	Period   string
	Fallback bool
	Logger   *zap.Logger
}

// Format implements Formatter
func (f *LLM) Format(ctx context.Context, doc *types.Document) (string, error) {
	base, err := Deterministic{}.Format(ctx, doc)
	if err != nil {
		return "", err
	}

	out, err := f.generate(ctx, doc, base)
	if err == nil {
		return out, nil
	}
	if !f.Fallback {
		return "", err
	}

	f.logger().Warn("llm formatting failed, using deterministic report",
		zap.String("subject", doc.Subject),
		zap.Error(err))
	return base, nil
}

func (f *LLM) generate(ctx context.Context, doc *types.Document, base string) (string, error) {
	if f.Client == nil {
		return "", &Error{Message: "no LLM client configured"}
	}

	subject := doc.Subject
	if subject == "" {
		subject = doc.Title
	}
	prompt, err := prompts.Render("formatting.json", "format-evaluation", map[string]string{
		"Subject":  subject,
		"Period":   f.period(),
		"Document": base,
	})
	if err != nil {
		return "", &Error{Message: "failed to build prompt", Cause: err}
	}
	system, err := prompts.Get("formatting.json", "format-evaluation-system")
	if err != nil {
		return "", &Error{Message: "failed to load system prompt", Cause: err}
	}

	answer, err := f.Client.Generate(ctx, llm.Request{System: system, Prompt: prompt, Tier: f.tier()})
	if err != nil {
		return "", &Error{Message: "model call failed", Cause: err}
	}

	answer = llm.CleanMarkdownBlock(answer)
	if strings.TrimSpace(answer) == "" {
		return "", &Error{Message: "model returned an empty report"}
	}
	return answer + "\n", nil
}

func (f *LLM) tier() llm.ModelTier {
	if f.Tier == "" {
		return llm.TierStandard
	}
	return f.Tier
}

func (f *LLM) period() string {
	if f.Period == "" {
		return "the current evaluation period"
	}
	return f.Period
}

func (f *LLM) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// New returns the formatter for strategy. The llm strategy needs client.
func New(strategy string, client llm.Client, period string, logger *zap.Logger) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyDeterministic:
		return Deterministic{}, nil
	case StrategyLLM:
		if client == nil {
			return nil, &Error{Message: "llm strategy requires an LLM client"}
		}
		return &LLM{Client: client, Period: period, Fallback: true, Logger: logger}, nil
	default:
		return nil, &Error{Message: fmt.Sprintf("unknown formatting strategy %q", strategy)}
	}
}
