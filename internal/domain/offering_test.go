package domain

import (
	"testing"
	"time"
)

func TestSelectEarliest(t *testing.T) {
	now := time.Now().UTC()

	offerings := []Offering{
		{OfferingID: "cbo-3d", StartAt: now.Add(3 * 24 * time.Hour)},
		{OfferingID: "cbo-1d", StartAt: now.Add(1 * 24 * time.Hour)},
		{OfferingID: "cbo-7d", StartAt: now.Add(7 * 24 * time.Hour)},
	}

	best := SelectEarliest(offerings)
	if best == nil {
		t.Fatal("expected an offering, got nil")
	}
	if best.OfferingID != "cbo-1d" {
		t.Errorf("expected earliest offering 'cbo-1d', got %q", best.OfferingID)
	}
}

func TestSelectEarliest_TieKeepsFirstEncountered(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	offerings := []Offering{
		{OfferingID: "cbo-first", StartAt: start},
		{OfferingID: "cbo-second", StartAt: start},
	}

	best := SelectEarliest(offerings)
	if best.OfferingID != "cbo-first" {
		t.Errorf("expected tie to keep first-encountered offering, got %q", best.OfferingID)
	}
}

func TestSelectEarliest_Empty(t *testing.T) {
	if best := SelectEarliest(nil); best != nil {
		t.Errorf("expected nil for empty candidates, got %+v", best)
	}
}
