package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtreamctl/xtreamctl/internal/cachestore"
	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeXtream serves a small live catalog and per-stream EPG tables.
func fakeXtream(t *testing.T, catalogHits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "get_live_categories":
			if catalogHits != nil {
				catalogHits.Add(1)
			}
			w.Write([]byte(`[
				{"category_id": "1", "category_name": "Sports"},
				{"category_id": "2", "category_name": "News"}
			]`))
		case "get_live_streams":
			w.Write([]byte(`[
				{"stream_id": 10, "name": "ESPN", "category_id": "1", "tv_archive_duration": "7"},
				{"stream_id": 11, "name": "CNN", "category_id": "2"},
				{"stream_id": 12, "name": "Mystery", "category_id": "99"}
			]`))
		case "get_simple_data_table":
			switch r.URL.Query().Get("stream_id") {
			case "10":
				w.Write([]byte(`{"epg_listings": [{"id": "1"}, {"id": "2"}]}`))
			case "11":
				http.Error(w, "boom", http.StatusInternalServerError)
			default:
				w.Write([]byte(`{}`))
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestAssembler_CategoryFilterScenario(t *testing.T) {
	server := fakeXtream(t, nil)
	defer server.Close()

	assembler := NewAssembler(Options{
		Client:        xtream.NewClient(server.URL, "user", "pass"),
		Category:      "sport",
		NameWidth:     60,
		CategoryWidth: 40,
		Logger:        testLogger(),
	})

	rows, err := assembler.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0].StreamID)
	assert.Equal(t, "ESPN", rows[0].Name)
	assert.Equal(t, "Sports", rows[0].Category)
	assert.Equal(t, "7", rows[0].Archive)
	assert.Equal(t, "", rows[0].EPG, "EPG column stays empty when not requested")
	assert.Equal(t, NotAvailable, rows[0].VideoCodec, "probe fields are N/A when probing is off")
}

func TestAssembler_UnknownCategoryLabel(t *testing.T) {
	server := fakeXtream(t, nil)
	defer server.Close()

	assembler := NewAssembler(Options{
		Client: xtream.NewClient(server.URL, "user", "pass"),
		Logger: testLogger(),
	})

	rows, err := assembler.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, UnknownCategory, rows[2].Category)
	assert.Equal(t, NotAvailable, rows[1].Archive, "missing archive duration renders N/A")
}

func TestAssembler_EPGCountsAndDegradation(t *testing.T) {
	server := fakeXtream(t, nil)
	defer server.Close()

	assembler := NewAssembler(Options{
		Client:   xtream.NewClient(server.URL, "user", "pass"),
		CheckEPG: true,
		Logger:   testLogger(),
	})

	rows, err := assembler.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2", rows[0].EPG)
	// Stream 11's EPG endpoint fails; the row degrades to zero instead of
	// aborting the run.
	assert.Equal(t, "0", rows[1].EPG)
	// Stream 12 returns an object without listings.
	assert.Equal(t, "0", rows[2].EPG)
}

func TestAssembler_TopLevelFetchFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	assembler := NewAssembler(Options{
		Client: xtream.NewClient(server.URL, "user", "pass"),
		Logger: testLogger(),
	})

	_, err := assembler.Run(context.Background())
	require.Error(t, err)

	var terr *xtream.TransportError
	assert.True(t, errors.As(err, &terr))
}

func TestAssembler_CacheAvoidsSecondFetch(t *testing.T) {
	var catalogHits atomic.Int32
	server := fakeXtream(t, &catalogHits)
	defer server.Close()

	cache := cachestore.New(t.TempDir(), cachestore.WithLogger(testLogger()))
	opts := Options{
		Client: xtream.NewClient(server.URL, "user", "pass"),
		Cache:  cache,
		Server: "host.example",
		Logger: testLogger(),
	}

	_, err := NewAssembler(opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), catalogHits.Load())

	// Second run the same day: both catalogs come from the cache.
	rows, err := NewAssembler(opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), catalogHits.Load(), "cached run must not refetch")
	assert.Len(t, rows, 3)
}

func TestAssembler_ConcurrentEnrichmentPreservesOrder(t *testing.T) {
	server := fakeXtream(t, nil)
	defer server.Close()

	assembler := NewAssembler(Options{
		Client:      xtream.NewClient(server.URL, "user", "pass"),
		CheckEPG:    true,
		Concurrency: 4,
		Logger:      testLogger(),
	})

	rows, err := assembler.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "10", rows[0].StreamID)
	assert.Equal(t, "11", rows[1].StreamID)
	assert.Equal(t, "12", rows[2].StreamID)
}
