package service

import (
	"math"
	"testing"
)

func TestCharacterErrorRate(t *testing.T) {
	tests := []struct {
		reference  string
		transcript string
		expected   float64
	}{
		{"abcd", "abcd", 0},
		{"abcd", "abcx", 0.25},
		{"abcd", "", 1},
		{"", "abc", 0},
	}

	for _, tt := range tests {
		if got := CharacterErrorRate(tt.reference, tt.transcript); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("CharacterErrorRate(%q, %q) = %v, want %v", tt.reference, tt.transcript, got, tt.expected)
		}
	}
}

func TestWordErrorRate(t *testing.T) {
	if got := WordErrorRate("old tom distillery", "old tom distillery"); got != 0 {
		t.Errorf("Expected 0 for identical text, got %v", got)
	}
	if got := WordErrorRate("old tom distillery", "new jim brewery"); got <= 0 {
		t.Errorf("Expected positive rate for different text, got %v", got)
	}
	if got := WordErrorRate("", "anything"); got != 0 {
		t.Errorf("Expected 0 for empty reference, got %v", got)
	}
}

func TestTranscriptErrorRates(t *testing.T) {
	w, c := TranscriptErrorRates("  OLD   Tom ", "old tom")
	if w == nil || c == nil {
		t.Fatal("Expected both rates")
	}
	if *w != 0 || *c != 0 {
		t.Errorf("Normalized texts should match exactly, got wer=%v cer=%v", *w, *c)
	}

	if w, c := TranscriptErrorRates("   ", "old tom"); w != nil || c != nil {
		t.Errorf("Expected nil rates for blank reference, got %v %v", w, c)
	}
}
