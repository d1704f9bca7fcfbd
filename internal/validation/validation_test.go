package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch url without www", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"http scheme", "http://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"trailing params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"short link with timestamp", "https://youtu.be/a_b-C1d2E3f?t=10", "a_b-C1d2E3f", false},
		{"surrounding whitespace", "  https://youtu.be/dQw4w9WgXcQ ", "dQw4w9WgXcQ", false},
		{"other host", "https://example.com/video", "", true},
		{"id too short", "https://youtu.be/abc", "", true},
		{"missing scheme", "www.youtube.com/watch?v=dQw4w9WgXcQ", "", true},
		{"channel page", "https://www.youtube.com/@someone", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidVideoURL) {
					t.Fatalf("ExtractVideoID(%q) error = %v, want ErrInvalidVideoURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractVideoID(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"alice@example.com", nil},
		{"", ErrEmailRequired},
		{strings.Repeat("a", 250) + "@x.io", ErrEmailTooLong},
		{"not-an-email", ErrEmailInvalid},
		{"Alice <alice@example.com>", ErrEmailInvalid},
	}

	for _, tt := range tests {
		if err := ValidateEmail(tt.email); !errors.Is(err, tt.want) {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, err, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("NormalizeEmail() = %q", got)
	}
}
