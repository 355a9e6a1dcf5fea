package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

func sampleCatalog() ([]xtream.Category, []xtream.Stream) {
	categories := []xtream.Category{
		{CategoryID: "1", CategoryName: "Sports HD"},
		{CategoryID: "2", CategoryName: "News"},
		{CategoryID: "3", CategoryName: "Motor Sports"},
	}
	streams := []xtream.Stream{
		{StreamID: 10, Name: "ESPN", CategoryID: "1"},
		{StreamID: 11, Name: "CNN", CategoryID: "2"},
		{StreamID: 12, Name: "MotoGP", CategoryID: "3"},
		{StreamID: 13, Name: "BBC News", CategoryID: "2"},
	}
	return categories, streams
}

func streamIDs(streams []xtream.Stream) []int64 {
	ids := make([]int64, len(streams))
	for i, s := range streams {
		ids[i] = s.StreamID.Int()
	}
	return ids
}

func TestFilter_NoFilters(t *testing.T) {
	categories, streams := sampleCatalog()

	got := Filter(categories, streams, "", "")
	assert.Equal(t, []int64{10, 11, 12, 13}, streamIDs(got))
}

func TestFilter_CategorySubstring(t *testing.T) {
	categories, streams := sampleCatalog()

	// "sport" matches both "Sports HD" and "Motor Sports", case-insensitively.
	got := Filter(categories, streams, "sport", "")
	assert.Equal(t, []int64{10, 12}, streamIDs(got))
}

func TestFilter_ChannelSubstring(t *testing.T) {
	categories, streams := sampleCatalog()

	got := Filter(categories, streams, "", "news")
	assert.Equal(t, []int64{13}, streamIDs(got))
}

func TestFilter_BothFiltersAnd(t *testing.T) {
	categories, streams := sampleCatalog()

	got := Filter(categories, streams, "news", "bbc")
	assert.Equal(t, []int64{13}, streamIDs(got))

	// Channel matches but category does not: AND semantics drop it.
	got = Filter(categories, streams, "sport", "bbc")
	assert.Empty(t, got)
}

func TestFilter_NoMatchIsEmptyNotError(t *testing.T) {
	categories, streams := sampleCatalog()

	got := Filter(categories, streams, "documentary", "")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_StreamWithUnknownCategorySurvivesWithoutCategoryFilter(t *testing.T) {
	categories, _ := sampleCatalog()
	streams := []xtream.Stream{{StreamID: 99, Name: "Mystery", CategoryID: "404"}}

	got := Filter(categories, streams, "", "")
	assert.Len(t, got, 1)

	// With a category filter it cannot match any category id.
	got = Filter(categories, streams, "sport", "")
	assert.Empty(t, got)
}

func TestCategoryNames(t *testing.T) {
	categories, _ := sampleCatalog()

	names := CategoryNames(categories)
	assert.Equal(t, "Sports HD", names["1"])
	assert.Equal(t, "News", names["2"])
	_, ok := names["404"]
	assert.False(t, ok)
}
