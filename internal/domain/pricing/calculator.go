package pricing

import (
	"context"
	"sort"
)

// Ordering of the built-in calculators. Lower values run first.
const (
	OrderOffer      = 100
	OrderTier       = 200
	OrderAttributes = 300
	OrderDiscount   = 400
	OrderLowest     = 900
)

// NextFunc invokes the remainder of the pipeline
type NextFunc func(ctx context.Context, cc *CalculatorContext) error

// Calculator is one step of the price calculation pipeline. A calculator
// mutates cc and decides whether to call next. Not calling next stops the
// pipeline.
type Calculator interface {
	// Name returns the unique name of the calculator
	Name() string
	// Order returns the position of the calculator in the pipeline
	Order() int
	// Description returns a human-readable description
	Description() string
	// Calculate applies the calculator to cc
	Calculate(ctx context.Context, cc *CalculatorContext, next NextFunc) error
}

// BaseCalculator provides the common metadata of a calculator
type BaseCalculator struct {
	name        string
	order       int
	description string
}

// NewBaseCalculator creates a new BaseCalculator
func NewBaseCalculator(name string, order int, description string) BaseCalculator {
	return BaseCalculator{
		name:        name,
		order:       order,
		description: description,
	}
}

// Name returns the calculator name
func (c BaseCalculator) Name() string {
	return c.name
}

// Order returns the calculator order
func (c BaseCalculator) Order() int {
	return c.order
}

// Description returns the calculator description
func (c BaseCalculator) Description() string {
	return c.description
}

// Pipeline runs calculators in ascending order
type Pipeline struct {
	calculators []Calculator
}

// NewPipeline creates a pipeline. Calculators with equal order keep the
// order they were passed in.
func NewPipeline(calculators ...Calculator) *Pipeline {
	sorted := make([]Calculator, 0, len(calculators))
	for _, c := range calculators {
		if c != nil {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Pipeline{calculators: sorted}
}

// Calculators returns the calculators in execution order
func (p *Pipeline) Calculators() []Calculator {
	return append([]Calculator(nil), p.calculators...)
}

// Run executes the pipeline on cc
func (p *Pipeline) Run(ctx context.Context, cc *CalculatorContext) error {
	return p.invoke(0)(ctx, cc)
}

func (p *Pipeline) invoke(i int) NextFunc {
	return func(ctx context.Context, cc *CalculatorContext) error {
		if i >= len(p.calculators) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return p.calculators[i].Calculate(ctx, cc, p.invoke(i+1))
	}
}
