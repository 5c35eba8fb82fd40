package llm

import (
	"context"
	"errors"
)

// Chain tries each generator in order until one answers. It mirrors running a
// primary provider with a secondary fallback.
type Chain struct {
	generators []Generator
	onFallback func(index int, err error)
}

// NewChain builds a chain. Nil generators are skipped.
func NewChain(onFallback func(index int, err error), generators ...Generator) *Chain {
	c := &Chain{onFallback: onFallback}
	for _, g := range generators {
		if g != nil {
			c.generators = append(c.generators, g)
		}
	}
	return c
}

// Len returns the number of usable generators.
func (c *Chain) Len() int { return len(c.generators) }

func (c *Chain) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(c.generators) == 0 {
		return nil, errors.New("llm: no provider configured")
	}
	var errs []error
	for i, g := range c.generators {
		resp, err := g.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		errs = append(errs, err)
		if c.onFallback != nil && i < len(c.generators)-1 {
			c.onFallback(i, err)
		}
	}
	return nil, errors.Join(errs...)
}

var _ Generator = (*Chain)(nil)
