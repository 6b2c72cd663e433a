package common

import "testing"

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", "https://www.bilibili.com/", "https://www.bilibili.com/", false},
		{"local api with port", "http://127.0.0.1:11434/api/generate", "http://127.0.0.1:11434/api/generate", false},
		{"trailing punctuation", " https://example.com/feed, ", "https://example.com/feed", false},
		{"markdown link", "[feed](https://example.com/feed)", "https://example.com/feed", false},
		{"empty", "   ", "", true},
		{"no scheme", "example.com", "", true},
		{"ftp", "ftp://example.com", "", true},
		{"space", "https://example.com/a b", "", true},
		{"braces in host", "https://exa{mple.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
