package strategy

import (
	"strings"
	"sync"

	"github.com/anime-shed/label-inspector-go/pkg/models"
)

// CategoryStrategy defines the interface for category-specific label checks
type CategoryStrategy interface {
	Check(normalized string) []models.CategoryCheck
	GetStrategyName() string
}

// WineStrategy verifies the sulfite declaration wine labels must carry
type WineStrategy struct{}

// NewWineStrategy creates a new wine strategy
func NewWineStrategy() CategoryStrategy {
	return &WineStrategy{}
}

// Check looks for a sulfite declaration. A missing one is a warning, not a failure.
func (s *WineStrategy) Check(normalized string) []models.CategoryCheck {
	check := models.CategoryCheck{Name: "sulfiteDeclaration"}
	if strings.Contains(normalized, "sulfite") || strings.Contains(normalized, "sulphite") {
		check.Matched = true
		check.Detail = "Sulfite declaration found"
	} else {
		check.Detail = "Sulfite declaration missing (required for wine)"
	}
	return []models.CategoryCheck{check}
}

// GetStrategyName returns the strategy name
func (s *WineStrategy) GetStrategyName() string {
	return "wine"
}

// BeerStrategy looks for a weak ingredient-list signal
type BeerStrategy struct{}

// NewBeerStrategy creates a new beer strategy
func NewBeerStrategy() CategoryStrategy {
	return &BeerStrategy{}
}

// Check accepts an explicit "ingredients" token or water and hops together
func (s *BeerStrategy) Check(normalized string) []models.CategoryCheck {
	check := models.CategoryCheck{Name: "ingredients"}
	hasList := strings.Contains(normalized, "ingredients")
	hasStaples := strings.Contains(normalized, "water") && strings.Contains(normalized, "hops")
	if hasList || hasStaples {
		check.Matched = true
		check.Detail = "Ingredient information found"
	} else {
		check.Detail = "No ingredient information found"
	}
	return []models.CategoryCheck{check}
}

// GetStrategyName returns the strategy name
func (s *BeerStrategy) GetStrategyName() string {
	return "beer"
}

// SpiritsStrategy has no checks beyond the common fields
type SpiritsStrategy struct{}

// NewSpiritsStrategy creates a new spirits strategy
func NewSpiritsStrategy() CategoryStrategy {
	return &SpiritsStrategy{}
}

// Check returns nothing for spirits
func (s *SpiritsStrategy) Check(string) []models.CategoryCheck {
	return nil
}

// GetStrategyName returns the strategy name
func (s *SpiritsStrategy) GetStrategyName() string {
	return "spirits"
}

// Registry maps product categories to their strategies
type Registry struct {
	mu         sync.RWMutex
	strategies map[models.ProductCategory]CategoryStrategy
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[models.ProductCategory]CategoryStrategy)}
}

// NewDefaultRegistry creates a registry with the wine, beer and spirits strategies
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(models.CategoryWine, NewWineStrategy())
	r.Register(models.CategoryBeer, NewBeerStrategy())
	r.Register(models.CategorySpirits, NewSpiritsStrategy())
	return r
}

// Register adds or replaces the strategy for a category
func (r *Registry) Register(category models.ProductCategory, strategy CategoryStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[category] = strategy
}

// Lookup returns the strategy for a category, if any
func (r *Registry) Lookup(category models.ProductCategory) (CategoryStrategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[category]
	return s, ok
}

// Check runs the category's strategy. Unknown or unset categories yield no checks.
func (r *Registry) Check(category models.ProductCategory, normalized string) []models.CategoryCheck {
	s, ok := r.Lookup(category)
	if !ok {
		return nil
	}
	return s.Check(normalized)
}
