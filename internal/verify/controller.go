// Package verify drives citations through lookup and records the outcome of
// each attempt.
package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ppiankov/citecheck/internal/logger"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/resolve"
)

// ErrIndexOutOfRange is returned by VerifySingle for an index outside the list
var ErrIndexOutOfRange = errors.New("citation index out of range")

// Observer is called after every state transition
type Observer func(model.Event)

// Option configures a Controller
type Option func(*Controller)

// WithObserver registers fn to be called after each transition
func WithObserver(fn Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, fn)
	}
}

// WithEvents sends every transition to ch. Sends block, so the receiver
// must keep draining ch while verification runs.
func WithEvents(ch chan<- model.Event) Option {
	return WithObserver(func(ev model.Event) {
		ch <- ev
	})
}

// Controller owns a citation list and moves items through
// Pending → Resolving → {Verified | NotFound | Error}.
//
// Callers must not run VerifySingle and VerifyAll concurrently on the same
// controller; the lock only protects readers taking snapshots.
type Controller struct {
	mu        sync.RWMutex
	citations []model.VerifiedCitation
	resolver  resolve.Resolver
	observers []Observer
}

// New wraps every extracted citation in the Pending state
func New(citations []model.ExtractedCitation, r resolve.Resolver, opts ...Option) *Controller {
	return adopt(Wrap(citations), r, opts...)
}

// adopt controls an existing list in place
func adopt(citations []model.VerifiedCitation, r resolve.Resolver, opts ...Option) *Controller {
	c := &Controller{citations: citations, resolver: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of citations
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.citations)
}

// Citations returns a snapshot of the current list
func (c *Controller) Citations() []model.VerifiedCitation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.VerifiedCitation(nil), c.citations...)
}

// Citation returns a snapshot of one item
func (c *Controller) Citation(index int) (model.VerifiedCitation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.citations) {
		return model.VerifiedCitation{}, fmt.Errorf("citation %d of %d: %w", index, len(c.citations), ErrIndexOutOfRange)
	}
	return c.citations[index], nil
}

// VerifySingle runs one lookup attempt for the item at index, leaving every
// other item untouched. Lookup failures are recorded on the item, so the only
// error is an invalid index.
func (c *Controller) VerifySingle(ctx context.Context, index int) error {
	if _, err := c.Citation(index); err != nil {
		return err
	}
	c.verify(ctx, index)
	return nil
}

// VerifyAll verifies every item sequentially in list order, reporting
// progress before each lookup. A failed item never stops the batch.
// Cancelling ctx stops the batch between items; the in-flight lookup is
// allowed to finish and items already settled keep their state.
func (c *Controller) VerifyAll(ctx context.Context, onProgress func(model.Progress)) error {
	total := c.Len()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			logger.Info("verification stopped after %d of %d citations", i, total)
			return err
		}
		if onProgress != nil {
			onProgress(model.Progress{Current: i + 1, Total: total})
		}
		c.verify(ctx, i)
	}
	return nil
}

func (c *Controller) verify(ctx context.Context, index int) {
	// a retried item drops the previous attempt's outcome
	item := c.transition(index, func(v *model.VerifiedCitation) {
		v.Status = model.StatusResolving
		v.Resolution = nil
		v.Error = nil
	})
	logger.Debug("verifying %s", item.Citation)

	resolution, err := c.resolve(ctx, item.ExtractedCitation)

	c.transition(index, func(v *model.VerifiedCitation) {
		switch {
		case err != nil:
			v.Status = model.StatusError
			v.Resolution = nil
			v.Error = model.StringPtr(err.Error())
		case resolution.Status == model.ResolutionResolved:
			v.Status = model.StatusVerified
			v.Resolution = resolution
			v.Error = nil
		default:
			v.Status = model.StatusNotFound
			v.Resolution = resolution
			v.Error = nil
		}
	})

	if err != nil {
		logger.Warn("lookup failed for %s: %v", item.Citation, err)
	}
}

// resolve calls the resolver, shielding the call from cancellation and
// turning panics and empty answers into errors
func (c *Controller) resolve(ctx context.Context, citation model.ExtractedCitation) (resolution *model.CitationResolution, err error) {
	defer func() {
		if p := recover(); p != nil {
			resolution, err = nil, fmt.Errorf("resolver panicked: %v", p)
		}
	}()

	resolution, err = c.resolver.Resolve(context.WithoutCancel(ctx), citation.Citation, citation.CaseName)
	if err == nil && resolution == nil {
		err = errors.New("resolver returned no result")
	}
	return resolution, err
}

// transition applies fn to one item under the lock and notifies observers
func (c *Controller) transition(index int, fn func(*model.VerifiedCitation)) model.VerifiedCitation {
	c.mu.Lock()
	fn(&c.citations[index])
	item := c.citations[index]
	c.mu.Unlock()

	for _, observe := range c.observers {
		observe(model.Event{Index: index, Citation: item})
	}
	return item
}
