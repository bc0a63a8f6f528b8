package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateContentType(t *testing.T) {
	if err := ValidateContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet; charset=binary"); err != nil {
		t.Fatalf("expected xlsx to be allowed: %v", err)
	}
	if err := ValidateContentType("image/png"); err == nil {
		t.Fatal("expected image to be rejected")
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := ValidateFileSize(0, 10); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := ValidateFileSize(11, 10); err == nil {
		t.Fatal("expected oversize file to be rejected")
	}
	if err := ValidateFileSize(10, 10); err != nil {
		t.Fatalf("expected limit to be inclusive: %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("12345678-0000-0000-0000-000000000000")

	key := ObjectKey("inbound/7", `C:\Users\op\receipts.xlsx`, id)
	if key != "inbound/7/receipts_12345678.xlsx" {
		t.Fatalf("unexpected key %q", key)
	}
	if key := ObjectKey("qc/1", "../../etc/passwd", id); strings.Contains(key, "..") {
		t.Fatalf("expected traversal to be stripped, got %q", key)
	}
}
