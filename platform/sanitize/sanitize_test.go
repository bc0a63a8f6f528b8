package sanitize

import (
	"strings"
	"testing"
)

func TestTextStripsMarkupAndCollapsesWhitespace(t *testing.T) {
	got := Text("  rack <b>A1</b>\t\nshelf &lt;script&gt;x&lt;/script&gt; ")
	if got != "rack A1 shelf x" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestTextTruncates(t *testing.T) {
	got := Text(strings.Repeat("é", MaxCellLength+20))
	if n := len([]rune(got)); n != MaxCellLength {
		t.Fatalf("expected %d runes, got %d", MaxCellLength, n)
	}
}

func TestFieldsDropsBlankValues(t *testing.T) {
	got := Fields(map[string]string{"remarks": " ok ", "rack_no": "  ", " vehicle_no": "KA01"})
	if len(got) != 2 || got["remarks"] != "ok" || got["vehicle_no"] != "KA01" {
		t.Fatalf("unexpected fields %v", got)
	}
}
