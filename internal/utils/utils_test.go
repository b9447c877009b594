package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/service/nearby"
)

func TestEventCursorRoundTrip(t *testing.T) {
	in := event.Cursor{StartDate: time.Date(2026, 5, 16, 8, 0, 0, 0, time.UTC), ID: "evt-1"}

	tok, err := EncodeEventCursor(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("cursor is not URL safe: %s", tok)
	}

	out, err := DecodeEventCursor(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != in.ID || !out.StartDate.Equal(in.StartDate) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestDecodeEventCursor_Rejects(t *testing.T) {
	for _, tok := range []string{"", "%%%", "bm90LWpzb24", "e30"} {
		if _, err := DecodeEventCursor(tok); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("%q: expected ErrInvalidCursor, got %v", tok, err)
		}
	}
}

func TestBuildNearbyCacheKey(t *testing.T) {
	base := nearby.Query{Latitude: 48.85661, Longitude: 2.35222, RadiusKm: 10, Limit: 20}
	same := base

	if BuildNearbyCacheKey(base) != BuildNearbyCacheKey(same) {
		t.Fatalf("identical searches should share a key")
	}

	moved := base
	moved.Latitude = 48.856612
	if BuildNearbyCacheKey(base) == BuildNearbyCacheKey(moved) {
		t.Fatalf("a different center must not share a key")
	}

	typ := event.TypeYardSale
	filtered := base
	filtered.Type = &typ

	if BuildNearbyCacheKey(base) == BuildNearbyCacheKey(filtered) {
		t.Fatalf("filters must be part of the key")
	}
	if !strings.HasPrefix(BuildNearbyCacheKey(base), NearbyCachePrefix) {
		t.Fatalf("missing prefix")
	}
}

func TestIsUUID(t *testing.T) {
	valid := []string{
		"9b2f0c4e-7d3a-4f1e-9a52-3c6d8e1f2a4b",
		"9B2F0C4E-7D3A-4F1E-9A52-3C6D8E1F2A4B",
	}
	invalid := []string{
		"",
		"not-a-uuid",
		"{9b2f0c4e-7d3a-4f1e-9a52-3c6d8e1f2a4b}",
		"9b2f0c4e7d3a4f1e9a523c6d8e1f2a4b",
	}

	for _, s := range valid {
		if !IsUUID(s) {
			t.Errorf("expected %q to be accepted", s)
		}
	}
	for _, s := range invalid {
		if IsUUID(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}
