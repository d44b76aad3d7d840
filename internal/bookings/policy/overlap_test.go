package policy

import (
	"testing"

	"paradisian/pkg/model"
)

func stay(in, out string) model.StayRange {
	s, err := model.ParseStayRange(in, out)
	if err != nil {
		panic(err)
	}
	return s
}

func TestConflicts(t *testing.T) {
	existing := stay("2024-05-15", "2024-05-20")

	tests := []struct {
		name             string
		candidate        model.StayRange
		wantConservative bool
		wantHalfOpen     bool
	}{
		{"ends on existing check-in", stay("2024-05-10", "2024-05-15"), true, false},
		{"same check-in", stay("2024-05-15", "2024-05-18"), true, true},
		{"starts inside existing", stay("2024-05-16", "2024-05-25"), true, true},
		{"ends with existing", stay("2024-05-10", "2024-05-20"), true, true},
		{"wraps existing", stay("2024-05-10", "2024-05-25"), true, true},
		{"starts on existing check-out", stay("2024-05-20", "2024-05-25"), false, false},
		{"entirely after", stay("2024-05-22", "2024-05-25"), false, false},
		{"entirely before", stay("2024-05-01", "2024-05-05"), true, false},
		{"inside existing", stay("2024-05-16", "2024-05-18"), true, true},
		{"zero length on existing check-out", stay("2024-05-20", "2024-05-20"), true, false},
		{"mirrored range", stay("2024-05-20", "2024-05-15"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Conservative{}).Conflicts(tt.candidate, existing); got != tt.wantConservative {
				t.Errorf("Conservative.Conflicts(%s, %s) = %v, want %v", tt.candidate, existing, got, tt.wantConservative)
			}
			if got := (HalfOpen{}).Conflicts(tt.candidate, existing); got != tt.wantHalfOpen {
				t.Errorf("HalfOpen.Conflicts(%s, %s) = %v, want %v", tt.candidate, existing, got, tt.wantHalfOpen)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	existing := []model.StayRange{
		stay("2024-05-01", "2024-05-03"),
		stay("2024-05-15", "2024-05-20"),
	}

	if !IsAvailable(Conservative{}, stay("2024-05-20", "2024-05-22"), existing) {
		t.Errorf("stay starting on the last check-out should be available")
	}
	if IsAvailable(Conservative{}, stay("2024-05-17", "2024-05-22"), existing) {
		t.Errorf("stay overlapping the second booking should not be available")
	}
	if !IsAvailable(HalfOpen{}, stay("2024-05-03", "2024-05-15"), existing) {
		t.Errorf("half-open policy should accept a stay filling the gap exactly")
	}
	if !IsAvailable(Conservative{}, stay("2024-06-01", "2024-06-02"), nil) {
		t.Errorf("a room with no bookings is always available")
	}

	hit, found := FirstConflict(HalfOpen{}, stay("2024-05-02", "2024-05-04"), existing)
	if !found || hit != existing[0] {
		t.Errorf("FirstConflict() = %s, %v; want %s", hit, found, existing[0])
	}
}

func TestForName(t *testing.T) {
	for name, want := range map[string]string{
		"":             "conservative",
		"conservative": "conservative",
		"half-open":    "half-open",
	} {
		p, err := ForName(name)
		if err != nil {
			t.Fatalf("ForName(%q) error: %v", name, err)
		}
		if p.Name() != want {
			t.Errorf("ForName(%q).Name() = %s, want %s", name, p.Name(), want)
		}
	}
	if _, err := ForName("strict"); err == nil {
		t.Errorf("expected error for unknown policy")
	}
}
