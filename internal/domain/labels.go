package domain

import (
	"strings"
)

// LabelMapping maps CI job labels to the resource class (instance type) that
// satisfies them. Keys are stored lowercase; lookups are case-insensitive.
type LabelMapping map[string]string

// DefaultLabelMapping covers the GPU generations the CI fleet schedules on.
func DefaultLabelMapping() LabelMapping {
	return LabelMapping{
		// Blackwell (B200)
		"b200":      "p6-b200.48xlarge",
		"sm100":     "p6-b200.48xlarge",
		"blackwell": "p6-b200.48xlarge",
		// Hopper (H100)
		"h100":   "p5.48xlarge",
		"sm90":   "p5.48xlarge",
		"hopper": "p5.48xlarge",
	}
}

// NewLabelMapping normalizes an arbitrary label table to lowercase keys.
func NewLabelMapping(table map[string]string) LabelMapping {
	m := make(LabelMapping, len(table))
	for label, class := range table {
		m[strings.ToLower(label)] = class
	}
	return m
}

// Resolve returns the resource class for the first matching label, or ""
// when none of the labels are known.
func (m LabelMapping) Resolve(labels []string) string {
	for _, label := range labels {
		if class, ok := m[strings.ToLower(label)]; ok {
			return class
		}
	}
	return ""
}
