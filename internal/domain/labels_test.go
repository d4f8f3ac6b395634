package domain

import (
	"testing"
)

func TestLabelMapping_Resolve(t *testing.T) {
	m := DefaultLabelMapping()

	tests := []struct {
		name     string
		labels   []string
		expected string
	}{
		{
			name:     "exact match",
			labels:   []string{"b200"},
			expected: "p6-b200.48xlarge",
		},
		{
			name:     "case insensitive",
			labels:   []string{"H100"},
			expected: "p5.48xlarge",
		},
		{
			name:     "first match wins",
			labels:   []string{"self-hosted", "hopper", "b200"},
			expected: "p5.48xlarge",
		},
		{
			name:     "no match",
			labels:   []string{"self-hosted", "linux"},
			expected: "",
		},
		{
			name:     "empty labels",
			labels:   nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Resolve(tt.labels); got != tt.expected {
				t.Errorf("Resolve(%v) = %q, want %q", tt.labels, got, tt.expected)
			}
		})
	}
}

func TestNewLabelMapping_NormalizesKeys(t *testing.T) {
	m := NewLabelMapping(map[string]string{"GB300": "p6e-gb300.36xlarge"})

	if got := m.Resolve([]string{"gb300"}); got != "p6e-gb300.36xlarge" {
		t.Errorf("expected lowercase key lookup to match, got %q", got)
	}
}
