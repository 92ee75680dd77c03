package pricing

import (
	"fmt"
	"sort"
	"sync"

	"github.com/storefront/backend/internal/domain/pricing"
	"github.com/storefront/backend/internal/domain/shared"
)

// CalculatorRegistry manages calculator registrations
type CalculatorRegistry struct {
	mu          sync.RWMutex
	calculators map[string]pricing.Calculator
}

// NewCalculatorRegistry creates a new, empty calculator registry
func NewCalculatorRegistry() *CalculatorRegistry {
	return &CalculatorRegistry{
		calculators: make(map[string]pricing.Calculator),
	}
}

// Register registers a calculator under its name
func (r *CalculatorRegistry) Register(c pricing.Calculator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.calculators[name]; exists {
		return fmt.Errorf("%w: calculator '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.calculators[name] = c
	return nil
}

// Get returns a calculator by name
func (r *CalculatorRegistry) Get(name string) (pricing.Calculator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.calculators[name]
	if !exists {
		return nil, fmt.Errorf("%w: calculator '%s' not found", shared.ErrNotFound, name)
	}
	return c, nil
}

// List returns all registered calculator names in execution order
func (r *CalculatorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calculators := r.sorted()
	names := make([]string, 0, len(calculators))
	for _, c := range calculators {
		names = append(names, c.Name())
	}
	return names
}

// Unregister removes a calculator
func (r *CalculatorRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calculators[name]; !exists {
		return fmt.Errorf("%w: calculator '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.calculators, name)
	return nil
}

// Pipeline builds a pipeline from the registered calculators
func (r *CalculatorRegistry) Pipeline() *pricing.Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return pricing.NewPipeline(r.sorted()...)
}

// sorted orders by Order, then by name for a stable result. Callers hold the lock.
func (r *CalculatorRegistry) sorted() []pricing.Calculator {
	calculators := make([]pricing.Calculator, 0, len(r.calculators))
	for _, c := range r.calculators {
		calculators = append(calculators, c)
	}
	sort.Slice(calculators, func(i, j int) bool {
		if calculators[i].Order() != calculators[j].Order() {
			return calculators[i].Order() < calculators[j].Order()
		}
		return calculators[i].Name() < calculators[j].Name()
	})
	return calculators
}
