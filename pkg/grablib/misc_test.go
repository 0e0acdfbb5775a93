package grablib

import (
	"errors"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain.zip", "plain.zip"},
		{"Game (USA).zip", "Game (USA).zip"},
		{"bad:name?.zip", "bad_name_.zip"},
		{"a/b\\c.zip", "a_b_c.zip"},
		{"what%3F.zip", "what_.zip"},
		{"CON.txt", "_CON.txt"},
		{"com1", "_com1"},
		{" trimmed. ", "trimmed"},
		{"", ""},
		{"...", "download"},
	}
	for _, tc := range tests {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateScheme(t *testing.T) {
	for _, ok := range []string{"http://example.com/x", "https://example.com"} {
		if err := ValidateScheme(ok); err != nil {
			t.Errorf("ValidateScheme(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"ftp://example.com/x", "file:///etc/passwd", "example.com"} {
		if err := ValidateScheme(bad); err == nil {
			t.Errorf("ValidateScheme(%q) passed", bad)
		}
	}
	if err := ValidateScheme("gopher://x"); !errors.Is(err, ErrUnsupportedURLScheme) {
		t.Errorf("err = %v, want ErrUnsupportedURLScheme", err)
	}
}

func TestContentLengthString(t *testing.T) {
	tests := []struct {
		in   ContentLength
		want string
	}{
		{ContentLengthUnknown, "unknown"},
		{512, "512B"},
		{2 * 1024, "2KB"},
		{ContentLength(3*MB + 5*KB), "3MB 5KB"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("ContentLength(%d).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseSpeedLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "100", want: 100},
		{in: "100B", want: 100},
		{in: "512KB", want: 512 * KB},
		{in: "512kb", want: 512 * KB},
		{in: "1.5MB", want: int64(1.5 * float64(MB))},
		{in: "2G", want: 2 * GB},
		{in: "", wantErr: true},
		{in: "fast", wantErr: true},
		{in: "10XB", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseSpeedLimit(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSpeedLimit(%q) = %d, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpeedLimit(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSpeedLimit(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
