package config

import (
	"strings"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("DEPSAFE_TEST_HOST", "collector.internal")
	t.Setenv("DEPSAFE_TEST_PORT", "4317")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no variables", "plain string", "plain string"},
		{"braced variable", "${DEPSAFE_TEST_HOST}", "collector.internal"},
		{"embedded", "endpoint=${DEPSAFE_TEST_HOST}:${DEPSAFE_TEST_PORT}", "endpoint=collector.internal:4317"},
		{"escaped dollar", "cost is $$5", "cost is $5"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandEnvStrict(tt.input)
			if err != nil {
				t.Fatalf("ExpandEnvStrict(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict_MissingVariables(t *testing.T) {
	_, err := ExpandEnvStrict("${DEPSAFE_TEST_MISSING_A} and ${DEPSAFE_TEST_MISSING_B}")
	if err == nil {
		t.Fatal("expected error for missing variables")
	}
	msg := err.Error()
	if !strings.Contains(msg, "DEPSAFE_TEST_MISSING_A") || !strings.Contains(msg, "DEPSAFE_TEST_MISSING_B") {
		t.Errorf("error %q should name both missing variables", msg)
	}
	if strings.Index(msg, "DEPSAFE_TEST_MISSING_A") > strings.Index(msg, "DEPSAFE_TEST_MISSING_B") {
		t.Errorf("missing variables should be sorted: %q", msg)
	}
}
