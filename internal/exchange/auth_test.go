package exchange

import "testing"

func TestGenerateSignatureDeterministic(t *testing.T) {
	sig1 := GenerateSignature("secret", "GET", "1700000000", "/v2/orders", "", "")
	sig2 := GenerateSignature("secret", "GET", "1700000000", "/v2/orders", "", "")
	if sig1 != sig2 {
		t.Fatalf("expected deterministic signature, got %s vs %s", sig1, sig2)
	}
	sig3 := GenerateSignature("other-secret", "GET", "1700000000", "/v2/orders", "", "")
	if sig1 == sig3 {
		t.Fatal("expected different secrets to produce different signatures")
	}
}

func TestAuthHeadersValidate(t *testing.T) {
	h := NewAuthHeaders("key", "secret", "GET", "/v2/orders", "", "")
	if err := h.Validate(); err != nil {
		t.Fatalf("fresh headers should validate: %v", err)
	}
	stale := &AuthHeaders{Timestamp: "1000000000"}
	if err := stale.Validate(); err == nil {
		t.Fatal("expected stale timestamp to fail validation")
	}
}
