package verify

import (
	"context"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/resolve"
)

// Single verifies citations[index] in place
func Single(ctx context.Context, citations []model.VerifiedCitation, index int, r resolve.Resolver) error {
	return adopt(citations, r).VerifySingle(ctx, index)
}

// All verifies every element of citations in place, in order
func All(ctx context.Context, citations []model.VerifiedCitation, r resolve.Resolver, onProgress func(model.Progress)) error {
	return adopt(citations, r).VerifyAll(ctx, onProgress)
}

// Wrap puts extracted citations into the Pending state for Single and All
func Wrap(citations []model.ExtractedCitation) []model.VerifiedCitation {
	verified := make([]model.VerifiedCitation, len(citations))
	for i, c := range citations {
		verified[i] = model.NewVerifiedCitation(c)
	}
	return verified
}
