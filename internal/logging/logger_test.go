package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		_ = Configure("info", "json")
	})

	if err := Configure("debug", "text"); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", Log.GetLevel())
	}
	if _, ok := Log.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Expected text formatter, got %T", Log.Formatter)
	}

	if err := Configure("warn", "json"); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if _, ok := Log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", Log.Formatter)
	}
}

func TestConfigure_Invalid(t *testing.T) {
	if err := Configure("loud", "json"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if err := Configure("info", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
