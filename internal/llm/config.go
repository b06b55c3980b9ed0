// Package llm wraps the Gemini API behind a small client used for optional
// free-text formatting of evaluation reports.
package llm

import "fmt"

// ModelTier selects a model by capability
type ModelTier string

const (
	// TierLite is a fast model, enough for reformatting short reports
	TierLite ModelTier = "lite"
	// TierStandard is the default formatting model
	TierStandard ModelTier = "standard"
)

// Provider names an LLM backend
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds model selection and sampling settings
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the Gemini defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature: 0.1,
	}
}

// GetModel returns the model for tier, falling back to the standard model
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok && model != "" {
		return model
	}
	return c.Models[TierStandard]
}

// WithModel returns a copy of c with model bound to tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return next
}

// Validate checks that the provider is supported and a standard model is set
func (c *Config) Validate() error {
	if c.Provider != ProviderGemini {
		return fmt.Errorf("unsupported LLM provider %q", c.Provider)
	}
	if c.Models[TierStandard] == "" {
		return fmt.Errorf("no model configured for tier %s", TierStandard)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	return nil
}
