// Package plan holds the static price-to-plan catalog.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// UnlimitedLimit is the message limit sentinel meaning no quota.
const UnlimitedLimit int64 = -1

// FreeTier is the plan granted to customers without a purchase.
var FreeTier = Plan{Name: "free", MessageLimit: 10}

// Plan describes a purchasable tier.
type Plan struct {
	PriceID      string `json:"price_id"`
	Name         string `json:"name"`
	MessageLimit int64  `json:"message_limit"`
}

// Unlimited reports whether the plan carries no quota.
func (p Plan) Unlimited() bool { return p.MessageLimit == UnlimitedLimit }

// Catalog maps provider price identifiers to plans. Immutable after
// construction.
type Catalog struct {
	plans map[string]Plan
}

// NewCatalog builds a catalog, rejecting duplicate price identifiers.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	byPrice := make(map[string]Plan, len(plans))
	for _, p := range plans {
		priceID := strings.TrimSpace(p.PriceID)
		if priceID == "" {
			return nil, fmt.Errorf("plan %q has empty price id", p.Name)
		}
		if _, exists := byPrice[priceID]; exists {
			return nil, fmt.Errorf("duplicate price id %q", priceID)
		}
		if p.MessageLimit < 0 && p.MessageLimit != UnlimitedLimit {
			return nil, fmt.Errorf("plan %q has invalid message limit %d", p.Name, p.MessageLimit)
		}
		p.PriceID = priceID
		byPrice[priceID] = p
	}
	return &Catalog{plans: byPrice}, nil
}

// Lookup resolves a price identifier. Unknown identifiers are a no-op
// signal for callers, never an error.
func (c *Catalog) Lookup(priceID string) (Plan, bool) {
	if c == nil {
		return Plan{}, false
	}
	p, ok := c.plans[strings.TrimSpace(priceID)]
	return p, ok
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.plans)
}

// Default returns the compiled-in catalog.
func Default() *Catalog {
	catalog, err := NewCatalog(
		Plan{PriceID: "price_1RncU5ION331djj7xzUmC", Name: "Starter", MessageLimit: 50},
		Plan{PriceID: "price_1RncUtION331djj7om5oiL", Name: "Standard", MessageLimit: 200},
		Plan{PriceID: "price_1RncVMION331djj7F3jbN", Name: "Premium", MessageLimit: UnlimitedLimit},
	)
	if err != nil {
		panic(err)
	}
	return catalog
}

// LoadFile reads a catalog from a JSON array of plans.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var plans []Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewCatalog(plans...)
}
