package repository

import (
	"strings"
	"testing"
)

func TestProductQueriesUseNormalizedKey(t *testing.T) {
	if !strings.Contains(productByWSNQuery, "WHERE wsn = $1") {
		t.Fatalf("expected lookup by wsn, got %s", productByWSNQuery)
	}
	for _, fragment := range []string{"ON CONFLICT (wsn) DO UPDATE", "RETURNING updated_at"} {
		if !strings.Contains(upsertProductQuery, fragment) {
			t.Fatalf("expected upsert query to contain %q", fragment)
		}
	}
}
