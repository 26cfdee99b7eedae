package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommend(t *testing.T) {
	before := testutil.ToFloat64(RecommendTotal.WithLabelValues("title", "ok"))
	RecordRecommend("title", "ok", 3*time.Millisecond)
	after := testutil.ToFloat64(RecommendTotal.WithLabelValues("title", "ok"))
	if after != before+1 {
		t.Errorf("recommend counter = %v, want %v", after, before+1)
	}
}

func TestRecordPoster(t *testing.T) {
	hits := testutil.ToFloat64(PosterLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(PosterLookups.WithLabelValues("placeholder"))

	RecordPoster(true)
	RecordPoster(false)
	RecordPoster(false)

	if got := testutil.ToFloat64(PosterLookups.WithLabelValues("hit")); got != hits+1 {
		t.Errorf("hit counter = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(PosterLookups.WithLabelValues("placeholder")); got != misses+2 {
		t.Errorf("placeholder counter = %v, want %v", got, misses+2)
	}
}

func TestSetCatalog(t *testing.T) {
	SetCatalog(4803, 384)
	if got := testutil.ToFloat64(CatalogMovies); got != 4803 {
		t.Errorf("CatalogMovies = %v", got)
	}
	if got := testutil.ToFloat64(CatalogDimension); got != 384 {
		t.Errorf("CatalogDimension = %v", got)
	}
}
