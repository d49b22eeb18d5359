package llmclient

import "testing"

func TestGetModelInfoByIDAndAlias(t *testing.T) {
	if info := GetModelInfo("claude-sonnet-4-5"); info == nil || info.Provider != "anthropic" {
		t.Errorf("lookup by id failed: %+v", info)
	}
	if info := GetModelInfo("sonnet"); info == nil || info.ID != "claude-sonnet-4-5" {
		t.Errorf("lookup by alias failed: %+v", info)
	}
	if info := GetModelInfo("nonexistent-model"); info != nil {
		t.Errorf("expected nil for unknown model, got %+v", info)
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-5.2", "openai"},
		{"gpt5-mini", "openai"},
		{"claude-opus-4-6", "anthropic"},
		{"gemini-3-pro-preview", "google"},
		// Prefix fallback for models not in the catalog.
		{"claude-next-9", "anthropic"},
		{"gpt-7-turbo", "openai"},
		{"o3-large", "openai"},
		{"mystery-model", ""},
	}
	for _, tt := range tests {
		if got := DetectProvider(tt.model); got != tt.want {
			t.Errorf("DetectProvider(%q)=%q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestNewClientForModelUnknown(t *testing.T) {
	_, err := NewClientForModel("mystery-model")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if _, ok := err.(*InvalidRequestError); !ok {
		t.Errorf("expected InvalidRequestError, got %T", err)
	}
}
