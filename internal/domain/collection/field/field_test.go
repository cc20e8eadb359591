package field

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	tests := []struct {
		name string
		ft   Type
	}{
		{"brand", Tag},
		{"price", Numeric},
		{"stock_status", Tag},
	}
	for _, tc := range tests {
		f, err := New(tc.name, tc.ft)
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tc.name, tc.ft, err)
		}
		if f.Name() != tc.name {
			t.Errorf("Name() = %q, want %q", f.Name(), tc.name)
		}
		if f.FieldType() != tc.ft {
			t.Errorf("FieldType() = %q, want %q", f.FieldType(), tc.ft)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		label string
		name  string
		ft    Type
	}{
		{"empty name", "", Tag},
		{"too long", strings.Repeat("x", 65), Tag},
		{"reserved id", "id", Tag},
		{"reserved text", "text", Tag},
		{"reserved vector", "vector", Numeric},
		{"bad type", "brand", "boolean"},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			if _, err := New(tc.name, tc.ft); err == nil {
				t.Errorf("New(%q, %q) = nil error, want error", tc.name, tc.ft)
			}
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNew("id", Tag)
}
