package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/FacundoMartinezR/TikTokFinder/internal/directory"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
	"github.com/FacundoMartinezR/TikTokFinder/internal/sample"
)

func TestPreviewService_FetchPoolKeepsPageOrder(t *testing.T) {
	dir := &fakeDirectory{records: directoryRecords(10, "food")}
	svc := NewPreviewService(dir, memoryCache(), PreviewConfig{Pages: 3, PageSize: 3, Concurrency: 3})

	pool, err := svc.FetchPool(context.Background(), paidCookie)
	if err != nil {
		t.Fatalf("FetchPool: %v", err)
	}
	if len(pool) != 9 {
		t.Fatalf("pool size = %d, want 9", len(pool))
	}
	for i, rec := range pool {
		if rec.ID != dir.records[i].ID {
			t.Fatalf("pool[%d] = %s, want %s (page order lost)", i, rec.ID, dir.records[i].ID)
		}
	}
	for _, q := range dir.calls {
		if q.Filters.SortBy != "followers" || q.PerPage != 3 {
			t.Errorf("unexpected pool query %+v", q)
		}
	}
}

func TestPreviewService_FetchPoolFailsOnAnyPage(t *testing.T) {
	dir := &fakeDirectory{records: directoryRecords(10, "food"), failPage: 2}
	svc := NewPreviewService(dir, memoryCache(), PreviewConfig{Pages: 3, PageSize: 3})

	if _, err := svc.FetchPool(context.Background(), paidCookie); !errors.Is(err, directory.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestPreviewService_SampleIsBalanced(t *testing.T) {
	dir := &fakeDirectory{records: directoryRecords(200, "beauty", "food", "gaming", "travel")}
	svc := NewPreviewService(dir, memoryCache(), PreviewConfig{Pages: 2, PageSize: 100})

	got, err := svc.Sample(context.Background(), freeCookie, "session-key")
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(got) != sample.DefaultLimit {
		t.Fatalf("sample size = %d, want %d", len(got), sample.DefaultLimit)
	}

	counts := map[string]int{}
	for _, rec := range got {
		counts[sample.BucketKey(rec)]++
	}
	want := map[string]int{"beauty": 13, "food": 13, "gaming": 12, "travel": 12}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("bucket counts = %v, want %v", counts, want)
	}

	again, err := svc.Sample(context.Background(), freeCookie, "session-key")
	if err != nil {
		t.Fatalf("Sample again: %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Error("same pool must yield the same sample")
	}
}

func TestPreviewService_RefreshPool(t *testing.T) {
	dir := &fakeDirectory{records: directoryRecords(5, "food")}
	svc := NewPreviewService(dir, memoryCache(), PreviewConfig{Pages: 2, PageSize: 4})

	n, err := svc.RefreshPool(context.Background(), "sid=service")
	if err != nil {
		t.Fatalf("RefreshPool: %v", err)
	}
	if n != 5 {
		t.Errorf("refreshed %d records, want 5", n)
	}
}

func TestPreviewService_SampleHeldForSession(t *testing.T) {
	for _, b := range cacheBackends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			dir := &fakeDirectory{records: directoryRecords(200, "beauty", "food", "gaming", "travel")}
			svc := NewPreviewService(dir, b.new(t), PreviewConfig{Pages: 2, PageSize: 100})

			first, err := svc.Sample(ctx, freeCookie, "session-key")
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			calls := dir.callCount()

			// New, more followed creators appear at the top of the directory.
			newcomers := make([]model.Influencer, 60)
			for i := range newcomers {
				newcomers[i] = model.Influencer{
					ID:        fmt.Sprintf("new-%d", i),
					Handle:    fmt.Sprintf("newcomer%03d", i),
					Niches:    []string{"dance"},
					Followers: int64(900000 - i),
				}
			}
			dir.setRecords(append(newcomers, dir.records...))

			second, err := svc.Sample(ctx, freeCookie, "session-key")
			if err != nil {
				t.Fatalf("Sample again: %v", err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Error("session sample was rebuilt after the directory changed")
			}

			// Another session samples the cached pool, not the changed directory.
			if _, err := svc.Sample(ctx, freeCookie, "other-session"); err != nil {
				t.Fatalf("Sample other session: %v", err)
			}
			if got := dir.callCount(); got != calls {
				t.Errorf("directory calls = %d, want %d", got, calls)
			}
		})
	}
}

func TestPreviewService_SharedFetchSurvivesCallerCancel(t *testing.T) {
	dir := &fakeDirectory{records: directoryRecords(20, "food"), delay: 150 * time.Millisecond}
	svc := NewPreviewService(dir, memoryCache(), PreviewConfig{Pages: 2, PageSize: 10, Concurrency: 2})

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Pool(ctx1, freeCookie)
		firstErr <- err
	}()

	deadline := time.After(2 * time.Second)
	for dir.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first fetch never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	type poolResult struct {
		pool []model.Influencer
		err  error
	}
	second := make(chan poolResult, 1)
	go func() {
		pool, err := svc.Pool(context.Background(), freeCookie)
		second <- poolResult{pool, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel1()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v, want context.Canceled", err)
	}
	res := <-second
	if res.err != nil {
		t.Fatalf("live caller err = %v", res.err)
	}
	if len(res.pool) != 20 {
		t.Errorf("pool size = %d, want 20", len(res.pool))
	}
	if got := dir.callCount(); got != 2 {
		t.Errorf("directory calls = %d, want 2 (one shared fetch)", got)
	}
}
