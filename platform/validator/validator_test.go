package validator

import "testing"

type wsnInput struct {
	WSN string `validate:"wsn"`
}

func TestWSNTag(t *testing.T) {
	val := New()

	valid := []string{"ABC123", " abc123 ", "WSN-0001_A"}
	for _, v := range valid {
		if err := val.Struct(wsnInput{WSN: v}); err != nil {
			t.Fatalf("expected %q to be valid, got %v", v, err)
		}
	}

	invalid := []string{"", "   ", "ABC 123", "ABC/123"}
	for _, v := range invalid {
		if err := val.Struct(wsnInput{WSN: v}); err == nil {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
}
