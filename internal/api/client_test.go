package api

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_WithAPIKey(t *testing.T) {
	cfg := ClientConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}

	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClient_WithEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	client, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("default Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("expected error when no API key is available")
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	want := anthropic.Model("us.anthropic.claude-sonnet-4-20250514-v1:0")
	if got != want {
		t.Errorf("translateModelForBedrock = %q, want %q", got, want)
	}

	// Unknown models pass through unchanged
	custom := anthropic.Model("custom-model")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("translateModelForBedrock(%q) = %q, want passthrough", custom, got)
	}
}
