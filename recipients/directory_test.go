package recipients

import (
	"strings"
	"testing"
)

func TestAddresses(t *testing.T) {
	rows := [][]string{
		{"Email", "Backup email"},
		{"a@example.com", ""},
		{"", "  b@example.com "},
		{},
		{"   "},
		{"c@example.com", "d@example.com"},
	}

	tests := []struct {
		name      string
		hasHeader bool
		want      []string
	}{
		{"with header", true, []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}},
		{"without header", false, []string{"Email", "Backup email", "a@example.com", "b@example.com", "c@example.com", "d@example.com"}},
	}

	for _, tt := range tests {
		got := Addresses(rows, tt.hasHeader)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
		for _, addr := range got {
			if strings.TrimSpace(addr) == "" {
				t.Errorf("%s: blank address in result", tt.name)
			}
		}
	}
}

func TestAddressesEmpty(t *testing.T) {
	if got := Addresses(nil, true); len(got) != 0 {
		t.Errorf("nil rows: got %v", got)
	}
	if got := Addresses([][]string{{"Email"}}, true); len(got) != 0 {
		t.Errorf("header only: got %v", got)
	}
}

func TestCellsToStrings(t *testing.T) {
	got := cellsToStrings([][]interface{}{{"a@example.com", nil, 42.0}})
	want := []string{"a@example.com", "", "42"}
	if strings.Join(got[0], ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got[0], want)
	}
}
