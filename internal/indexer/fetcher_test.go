package indexer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"predictionScope/internal/model"
)

type endlessSource struct {
	calls   int
	queries []model.EventQuery
}

func (s *endlessSource) QueryEvents(_ context.Context, query model.EventQuery) (model.EventPage, error) {
	s.calls++
	s.queries = append(s.queries, query)
	id := model.EventID{TxDigest: fmt.Sprintf("D%d", s.calls), EventSeq: "0"}
	return model.EventPage{
		Data:        []model.RawEvent{{ID: id}},
		NextCursor:  &id,
		HasNextPage: true,
	}, nil
}

type scriptedSource struct {
	pages []model.EventPage
	errAt int
	calls int
}

func (s *scriptedSource) QueryEvents(_ context.Context, _ model.EventQuery) (model.EventPage, error) {
	defer func() { s.calls++ }()
	if s.errAt >= 0 && s.calls == s.errAt {
		return model.EventPage{}, fmt.Errorf("boom: %w", model.ErrFetchFailure)
	}
	return s.pages[s.calls], nil
}

type cancelledSource struct {
	calls int
}

func (s *cancelledSource) QueryEvents(_ context.Context, _ model.EventQuery) (model.EventPage, error) {
	s.calls++
	return model.EventPage{}, context.Canceled
}

type recordingObserver struct {
	pages, events int
	truncated     bool
}

func (o *recordingObserver) ObservePages(pages, events int, truncated bool) {
	o.pages, o.events, o.truncated = pages, events, truncated
}

func TestFetchStopsAtPageCap(t *testing.T) {
	src := &endlessSource{}
	obs := &recordingObserver{}
	f := NewFetcher(FetchConfig{}, src, obs, nil)

	events, err := f.Fetch(context.Background(), "0xpkg", "market")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != DefaultMaxPages {
		t.Fatalf("expected %d page requests, got %d", DefaultMaxPages, src.calls)
	}
	if len(events) != DefaultMaxPages {
		t.Fatalf("expected %d events, got %d", DefaultMaxPages, len(events))
	}
	if !obs.truncated || obs.pages != DefaultMaxPages {
		t.Fatalf("unexpected observation %+v", obs)
	}
}

func TestFetchPassesCursorAndPageSize(t *testing.T) {
	src := &endlessSource{}
	f := NewFetcher(FetchConfig{MaxPages: 3}, src, nil, nil)

	if _, err := f.Fetch(context.Background(), "0xpkg", "market"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.queries[0].Cursor != nil {
		t.Fatalf("first page must start without cursor")
	}
	if src.queries[2].Cursor == nil || src.queries[2].Cursor.TxDigest != "D2" {
		t.Fatalf("third page must continue from the second cursor, got %+v", src.queries[2].Cursor)
	}
	for _, q := range src.queries {
		if q.Limit != DefaultPageSize || q.Descending {
			t.Fatalf("unexpected query %+v", q)
		}
	}
}

func TestFetchStopsWithoutCursor(t *testing.T) {
	src := &scriptedSource{errAt: -1, pages: []model.EventPage{
		{Data: []model.RawEvent{{ID: model.EventID{TxDigest: "A", EventSeq: "0"}}}, HasNextPage: true},
	}}
	f := NewFetcher(FetchConfig{}, src, nil, nil)

	events, err := f.Fetch(context.Background(), "0xpkg", "market")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 || len(events) != 1 {
		t.Fatalf("expected a single page, got %d calls and %d events", src.calls, len(events))
	}
}

func TestFetchDeduplicatesBoundaryEvents(t *testing.T) {
	a := model.EventID{TxDigest: "A", EventSeq: "0"}
	b := model.EventID{TxDigest: "A", EventSeq: "1"}
	c := model.EventID{TxDigest: "B", EventSeq: "0"}
	src := &scriptedSource{errAt: -1, pages: []model.EventPage{
		{Data: []model.RawEvent{{ID: a}, {ID: b}}, NextCursor: &b, HasNextPage: true},
		{Data: []model.RawEvent{{ID: b}, {ID: c}}},
	}}
	f := NewFetcher(FetchConfig{}, src, nil, nil)

	events, err := f.Fetch(context.Background(), "0xpkg", "market")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 unique events, got %d", len(events))
	}
	if events[2].ID != c {
		t.Fatalf("order not preserved: %+v", events)
	}
}

func TestFetchPropagatesPageError(t *testing.T) {
	id := model.EventID{TxDigest: "A", EventSeq: "0"}
	src := &scriptedSource{errAt: 1, pages: []model.EventPage{
		{Data: []model.RawEvent{{ID: id}}, NextCursor: &id, HasNextPage: true},
	}}
	f := NewFetcher(FetchConfig{}, src, nil, nil)

	events, err := f.Fetch(context.Background(), "0xpkg", "market")
	if !errors.Is(err, model.ErrFetchFailure) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if events != nil {
		t.Fatalf("no partial result expected on failure")
	}
}

func TestFetchKeepsEventsWithoutCompleteID(t *testing.T) {
	src := &scriptedSource{errAt: -1, pages: []model.EventPage{{Data: []model.RawEvent{
		{TxDigest: "A"},
		{TxDigest: "B"},
		{TxDigest: "C"},
		{ID: model.EventID{TxDigest: "D"}},
		{ID: model.EventID{TxDigest: "D"}},
	}}}}
	f := NewFetcher(FetchConfig{}, src, nil, nil)

	events, err := f.Fetch(context.Background(), "0xpkg", "market")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected all 5 events, got %d", len(events))
	}
	if events[2].TxDigest != "C" {
		t.Fatalf("order not preserved: %+v", events)
	}
}

func TestFetchDoesNotRetryByDefault(t *testing.T) {
	src := &scriptedSource{errAt: 0, pages: []model.EventPage{{}, {}}}
	f := NewFetcher(FetchConfig{}, src, nil, nil)

	_, err := f.Fetch(context.Background(), "0xpkg", "market")
	if !errors.Is(err, model.ErrFetchFailure) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected exactly one page request, got %d", src.calls)
	}
}

func TestFetchDoesNotRetryCancellation(t *testing.T) {
	src := &cancelledSource{}
	f := NewFetcher(FetchConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, src, nil, nil)

	_, err := f.Fetch(context.Background(), "0xpkg", "market")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("cancellation must not be retried, got %d calls", src.calls)
	}
}

func TestFetchRetriesPage(t *testing.T) {
	src := &scriptedSource{errAt: 0, pages: []model.EventPage{
		{},
		{Data: []model.RawEvent{{ID: model.EventID{TxDigest: "A", EventSeq: "0"}}}},
	}}
	f := NewFetcher(FetchConfig{MaxRetries: 1, RetryBackoff: time.Millisecond}, src, nil, nil)

	events, err := f.Fetch(context.Background(), "0xpkg", "market")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected retried page to deliver 1 event, got %d", len(events))
	}
}

func TestFetchRequiresPackage(t *testing.T) {
	f := NewFetcher(FetchConfig{}, &endlessSource{}, nil, nil)
	if _, err := f.Fetch(context.Background(), "", "market"); !errors.Is(err, model.ErrConfigurationMissing) {
		t.Fatalf("expected configuration missing, got %v", err)
	}
}
