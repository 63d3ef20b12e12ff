// internal/utils/text_test.go
package utils

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Baby Bottle", "Baby Bottle"},
		{"nbsp", " $19.99 ", "$19.99"},
		{"collapse spaces", "Baby   Bottle \n 9oz", "Baby Bottle 9oz"},
		{"empty", "", ""},
		{"only whitespace", " \t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel("debug"); err != nil || lvl != DebugLevel {
		t.Errorf("ParseLevel(debug) = %v, %v", lvl, err)
	}
	if lvl, err := ParseLevel(""); err != nil || lvl != InfoLevel {
		t.Errorf("ParseLevel(empty) = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}
