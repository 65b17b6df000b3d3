package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/model"
)

// countingResolver returns a fixed outcome and counts calls
func countingResolver(calls *int, res *model.CitationResolution, err error) Resolver {
	return ResolverFunc(func(ctx context.Context, citation string, caseName *string) (*model.CitationResolution, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		out := *res
		out.AttemptsLog = append([]string(nil), res.AttemptsLog...)
		return &out, nil
	})
}

func TestCachedResolver_CachesResolved(t *testing.T) {
	calls := 0
	resolved := &model.CitationResolution{
		Citation: "[2020] UKSC 5",
		Status:   model.ResolutionResolved,
		Candidates: []model.ResolvedCandidate{
			{URL: "https://www.bailii.org/uk/cases/UKSC/2020/5.html", Source: model.SourceBailii, Confidence: 0.95, ResolutionMethod: methodNeutralBailii},
		},
		AttemptsLog: []string{"Strategy 1: Neutral citation matched (UKSC)"},
	}
	r := NewCachedResolver(countingResolver(&calls, resolved, nil), cache.NewMemoryCache(time.Hour, time.Hour))

	name := "Smith v Jones"
	first, err := r.Resolve(context.Background(), "[2020] UKSC 5", &name)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := r.Resolve(context.Background(), "[2020] UKSC 5", &name)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
	if logContains(first.AttemptsLog, "Answered from cache") {
		t.Error("expected the first answer to come from upstream")
	}
	if !logContains(second.AttemptsLog, "Answered from cache") {
		t.Errorf("expected cache note in log: %v", second.AttemptsLog)
	}
	if len(second.Candidates) != 1 || second.Candidates[0].URL != resolved.Candidates[0].URL {
		t.Errorf("unexpected cached candidates %+v", second.Candidates)
	}

	// a different case name is a different lookup
	if _, err := r.Resolve(context.Background(), "[2020] UKSC 5", nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a second upstream call for a different name, got %d", calls)
	}
}

func TestCachedResolver_SkipsNegativeOutcomes(t *testing.T) {
	calls := 0
	unresolvable := &model.CitationResolution{Citation: "[2021] UKSC 999", Status: model.ResolutionUnresolvable}
	r := NewCachedResolver(countingResolver(&calls, unresolvable, nil), cache.NewMemoryCache(time.Hour, time.Hour))

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), "[2021] UKSC 999", nil); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("expected unresolvable outcomes to bypass the cache, got %d calls", calls)
	}
}

func TestCachedResolver_SkipsErrors(t *testing.T) {
	calls := 0
	r := NewCachedResolver(countingResolver(&calls, nil, ErrAllRequestsFailed), cache.NewMemoryCache(time.Hour, time.Hour))

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), "[2020] UKSC 5", nil); !errors.Is(err, ErrAllRequestsFailed) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("expected errors to bypass the cache, got %d calls", calls)
	}
}

func TestCachedResolver_DropsCorruptEntry(t *testing.T) {
	calls := 0
	resolved := &model.CitationResolution{Citation: "[2020] UKSC 5", Status: model.ResolutionResolved}
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	key := cache.ResolutionKey("[2020] UKSC 5", "")
	if err := c.Set(key, []byte("{not json"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	r := NewCachedResolver(countingResolver(&calls, resolved, nil), c)
	res, err := r.Resolve(context.Background(), "[2020] UKSC 5", nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if calls != 1 || res.Status != model.ResolutionResolved {
		t.Errorf("expected upstream answer after corrupt entry, got %d calls, %+v", calls, res)
	}
}
