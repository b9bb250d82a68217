package strategy

import (
	"testing"

	"github.com/anime-shed/label-inspector-go/pkg/models"
)

func TestRegistryCheck(t *testing.T) {
	registry := NewDefaultRegistry()

	tests := []struct {
		name     string
		category models.ProductCategory
		text     string
		checks   int
		matched  bool
		detail   string
	}{
		{"Wine with sulfites", models.CategoryWine, "red wine contains sulfites", 1, true, "Sulfite declaration found"},
		{"Wine with british spelling", models.CategoryWine, "contains sulphites", 1, true, "Sulfite declaration found"},
		{"Wine without sulfites", models.CategoryWine, "red wine 13.5% alc", 1, false, "Sulfite declaration missing (required for wine)"},
		{"Beer with ingredients", models.CategoryBeer, "ingredients: malted barley", 1, true, "Ingredient information found"},
		{"Beer with water and hops", models.CategoryBeer, "brewed with water, barley and hops", 1, true, "Ingredient information found"},
		{"Beer with water only", models.CategoryBeer, "brewed with spring water", 1, false, "No ingredient information found"},
		{"Spirits", models.CategorySpirits, "kentucky bourbon", 0, false, ""},
		{"Unset", models.CategoryUnset, "contains sulfites", 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := registry.Check(tt.category, tt.text)
			if len(checks) != tt.checks {
				t.Fatalf("expected %d checks, got %d", tt.checks, len(checks))
			}
			if tt.checks == 0 {
				return
			}
			if checks[0].Matched != tt.matched {
				t.Errorf("Matched = %v, want %v", checks[0].Matched, tt.matched)
			}
			if checks[0].Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", checks[0].Detail, tt.detail)
			}
		})
	}
}

type ciderStrategy struct{}

func (ciderStrategy) Check(string) []models.CategoryCheck {
	return []models.CategoryCheck{{Name: "appleContent", Matched: true, Detail: "ok"}}
}

func (ciderStrategy) GetStrategyName() string { return "cider" }

func TestRegistryRegister(t *testing.T) {
	registry := NewDefaultRegistry()
	cider := models.ProductCategory("cider")

	if _, ok := registry.Lookup(cider); ok {
		t.Fatal("cider should not be registered by default")
	}
	registry.Register(cider, ciderStrategy{})

	s, ok := registry.Lookup(cider)
	if !ok || s.GetStrategyName() != "cider" {
		t.Fatalf("expected cider strategy, got %v", s)
	}
	if checks := registry.Check(cider, ""); len(checks) != 1 || checks[0].Name != "appleContent" {
		t.Errorf("unexpected checks %+v", checks)
	}
}
