package plan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupKnownPrices(t *testing.T) {
	catalog := Default()

	cases := []struct {
		priceID string
		name    string
		limit   int64
	}{
		{"price_1RncU5ION331djj7xzUmC", "Starter", 50},
		{"price_1RncUtION331djj7om5oiL", "Standard", 200},
		{"price_1RncVMION331djj7F3jbN", "Premium", UnlimitedLimit},
	}
	for _, tc := range cases {
		p, ok := catalog.Lookup(tc.priceID)
		if !ok {
			t.Fatalf("expected %s in catalog", tc.priceID)
		}
		if p.Name != tc.name || p.MessageLimit != tc.limit {
			t.Fatalf("expected {%s %d}, got {%s %d}", tc.name, tc.limit, p.Name, p.MessageLimit)
		}
	}
}

func TestLookupUnknownPrice(t *testing.T) {
	catalog := Default()
	if _, ok := catalog.Lookup("price_unknown"); ok {
		t.Fatalf("unknown price id must not resolve")
	}
}

func TestLookupTrimsWhitespace(t *testing.T) {
	catalog := Default()
	if _, ok := catalog.Lookup("  price_1RncU5ION331djj7xzUmC "); !ok {
		t.Fatalf("expected lookup to trim whitespace")
	}
}

func TestUnlimitedSentinel(t *testing.T) {
	p, _ := Default().Lookup("price_1RncVMION331djj7F3jbN")
	if !p.Unlimited() {
		t.Fatalf("premium plan should be unlimited")
	}
	if (Plan{MessageLimit: 50}).Unlimited() {
		t.Fatalf("bounded plan reported unlimited")
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog(
		Plan{PriceID: "price_a", Name: "A", MessageLimit: 10},
		Plan{PriceID: "price_a", Name: "B", MessageLimit: 20},
	)
	if err == nil {
		t.Fatalf("expected duplicate price id error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `[
		{"price_id": "price_x", "name": "Custom", "message_limit": 99},
		{"price_id": "price_y", "name": "Boundless", "message_limit": -1}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	p, ok := catalog.Lookup("price_x")
	if !ok || p.Name != "Custom" || p.MessageLimit != 99 {
		t.Fatalf("unexpected plan: %+v ok=%v", p, ok)
	}
	if p, _ := catalog.Lookup("price_y"); !p.Unlimited() {
		t.Fatalf("expected unlimited plan from file")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{"not":"a list"}`), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
