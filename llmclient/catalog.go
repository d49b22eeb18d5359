package llmclient

import "strings"

// ModelInfo describes a known model in the catalog.
type ModelInfo struct {
	ID            string   `json:"id"`
	Provider      string   `json:"provider"`
	ContextWindow int      `json:"context_window"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Models is the built-in model catalog (February 2026).
var Models = []ModelInfo{
	// Anthropic
	{ID: "claude-opus-4-6", Provider: "anthropic", ContextWindow: 200000, Aliases: []string{"opus", "claude-opus"}},
	{ID: "claude-sonnet-4-5", Provider: "anthropic", ContextWindow: 200000, Aliases: []string{"sonnet", "claude-sonnet"}},

	// OpenAI
	{ID: "gpt-5.2", Provider: "openai", ContextWindow: 1047576, Aliases: []string{"gpt5"}},
	{ID: "gpt-5.2-mini", Provider: "openai", ContextWindow: 1047576, Aliases: []string{"gpt5-mini"}},
	{ID: "gpt-4o-mini", Provider: "openai", ContextWindow: 128000},

	// Google
	{ID: "gemini-3-pro-preview", Provider: "google", ContextWindow: 1048576, Aliases: []string{"gemini-pro", "gemini-3-pro"}},
	{ID: "gemini-3-flash-preview", Provider: "google", ContextWindow: 1048576, Aliases: []string{"gemini-flash", "gemini-3-flash"}},
}

// GetModelInfo returns the catalog entry for a model id or alias, or nil
// if unknown.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		if Models[i].ID == modelID {
			return &Models[i]
		}
		for _, alias := range Models[i].Aliases {
			if alias == modelID {
				return &Models[i]
			}
		}
	}
	return nil
}

// DetectProvider resolves the provider for a model through the catalog,
// falling back to name prefixes for models newer than the catalog.
func DetectProvider(model string) string {
	if info := GetModelInfo(model); info != nil {
		return info.Provider
	}
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gpt") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return "openai"
	case strings.HasPrefix(model, "gemini"):
		return "google"
	default:
		return ""
	}
}

// NewClientForModel builds a GollmClient, resolving the provider from the
// model name. It fails when the model is not recognized.
func NewClientForModel(model string, opts ...GollmClientOption) (*GollmClient, error) {
	provider := DetectProvider(model)
	if provider == "" {
		return nil, &InvalidRequestError{ClientError: ClientError{
			Message: "unknown model " + model + ", specify the provider with NewGollmClient",
		}}
	}
	if info := GetModelInfo(model); info != nil {
		model = info.ID
	}
	return NewGollmClient(provider, model, opts...)
}
