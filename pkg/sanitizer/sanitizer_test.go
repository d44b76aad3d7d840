package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ada   Lovelace ", "Ada Lovelace"},
		{"Grace\tHopper\n", "Grace Hopper"},
		{"Bell\x07e", "Belle"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Guest@Example.COM "); got != "guest@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"cdn.example.com/rooms/1.jpg", "https://cdn.example.com/rooms/1.jpg"},
		{"HTTP://CDN.Example.com/a.png?utm_source=x&v=2", "http://cdn.example.com/a.png?v=2"},
		{"https://", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		regions []string
		want    string
	}{
		{"empty", "", nil, ""},
		{"international", "+44 121 234 5678", nil, "+441212345678"},
		{"us national", "(201) 555-0123", []string{"US"}, "+12015550123"},
		{"israeli national", "050-234-5678", []string{"IL"}, "+972502345678"},
		{"garbage", "not a phone", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.in, tt.regions...); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPipeline(t *testing.T) {
	p := Pipeline{CollapseSpaces, NormalizeEmail}
	if got := p.Apply("  A  B "); got != "a b" {
		t.Errorf("got %q", got)
	}
}
