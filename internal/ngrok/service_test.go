package ngrok

import (
	"context"
	"strings"
	"testing"

	"carbridge/internal/config"
)

func TestDisabledService(t *testing.T) {
	svc, err := NewService(&config.NgrokConfig{Enabled: false}, nil)
	if err != nil || svc != nil {
		t.Fatalf("Expected nil service when disabled, got %v, %v", svc, err)
	}

	// a nil service is a no-op
	if err := svc.StartTunnel(context.Background(), "http://localhost:8080"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if svc.PublicURL() != "" || svc.Done() != nil || svc.Stop() != nil {
		t.Error("Expected nil service accessors to be empty")
	}
}

func TestMissingAuthToken(t *testing.T) {
	if _, err := NewService(&config.NgrokConfig{Enabled: true}, nil); err == nil {
		t.Error("Expected error without auth token")
	}
}

func TestTrafficPolicy(t *testing.T) {
	policy := trafficPolicy("github")
	if !strings.Contains(policy, "type: oauth") || !strings.Contains(policy, "provider: github") {
		t.Errorf("Unexpected policy:\n%s", policy)
	}
}
