package tui

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWrapWordsBreaksOnSpaces(t *testing.T) {
	got := wrapWords("Offer a choice between two okay options", 14)
	want := []string{"Offer a choice", "between two", "okay options"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrap (-want +got):\n%s", diff)
	}
}

func TestWrapWordsSplitsLongWord(t *testing.T) {
	got := wrapWords("abcdefghij xy", 4)
	want := []string{"abcd", "efgh", "ij", "xy"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrap (-want +got):\n%s", diff)
	}
}

func TestWrapWordsCountsWideRunes(t *testing.T) {
	// Each CJK rune is two cells wide.
	got := wrapWords("日本 語", 4)
	want := []string{"日本", "語"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wrap (-want +got):\n%s", diff)
	}
}

func TestHangingLinesIndentsContinuation(t *testing.T) {
	got := hangingLines("1. ", "Stay close and keep your voice low", 17)
	want := []string{"1. Stay close and", "   keep your", "   voice low"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("hanging (-want +got):\n%s", diff)
	}
	if hangingLines("- ", "   ", 10) != nil {
		t.Fatalf("expected no lines for blank text")
	}
}
