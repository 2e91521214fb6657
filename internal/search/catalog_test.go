package search_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pet-assistant/backend/internal/search"
)

func sampleRecords() []search.ServiceRecord {
	return []search.ServiceRecord{
		{Title: "Grooming", Description: "We groom pets", Keywords: []string{"bath", "haircut"}},
		{Title: "Pet Sitting", Description: "We watch your pet while you travel", Keywords: []string{"travel", "sitting"}},
		{Title: "Vet Visit", Description: "Checkups when your pet is sick or injured", Keywords: []string{"illness", "vaccine"}},
	}
}

func TestPreprocessKeepsOrderAndReferences(t *testing.T) {
	records := sampleRecords()
	entries := search.Preprocess(records, nil)

	require.Len(t, entries, 3)
	for i := range records {
		assert.Same(t, &records[i], entries[i].Service)
	}
	assert.ElementsMatch(t, []string{"groom", "pet", "bath", "haircut"}, entries[0].Tokens.Sorted())
}

func TestPreprocessEmpty(t *testing.T) {
	assert.Empty(t, search.Preprocess(nil, nil))
}

func TestPreprocessMissingKeywords(t *testing.T) {
	entries := search.Preprocess([]search.ServiceRecord{{Title: "Walking", Description: "Daily dog walks"}}, nil)

	require.Len(t, entries, 1)
	assert.ElementsMatch(t, []string{"walk", "daili", "dog"}, entries[0].Tokens.Sorted())
}

func TestMatchPositive(t *testing.T) {
	catalog := search.NewCatalog([]search.ServiceRecord{
		{Title: "Pet Sitting", Description: "We watch your pet while you travel", Keywords: []string{"travel", "sitting"}},
	}, nil)

	result := catalog.Match("I need someone to watch my dog while I travel")

	assert.Equal(t, search.MatchResult{Title: "Pet Sitting", Description: "We watch your pet while you travel"}, result)
	assert.True(t, result.Matched())
}

func TestMatchZeroOverlap(t *testing.T) {
	catalog := search.NewCatalog([]search.ServiceRecord{
		{Title: "Grooming", Description: "We groom pets", Keywords: []string{}},
	}, nil)

	result := catalog.Match("xyzzyqux")

	assert.Equal(t, search.NoMatch, result)
	assert.False(t, result.Matched())
}

func TestMatchEmptyCatalog(t *testing.T) {
	for _, q := range []string{"", "grooming", "my dog is sick"} {
		assert.Equal(t, search.NoMatch, search.Match(q, nil, nil))
		assert.Equal(t, search.NoMatch, search.NewCatalog(nil, nil).Match(q))
	}
}

func TestMatchEmptyQuery(t *testing.T) {
	catalog := search.NewCatalog(sampleRecords(), nil)

	assert.Equal(t, search.NoMatch, catalog.Match(""))
	assert.Equal(t, search.NoMatch, catalog.Match("the and of"))
}

func TestMatchTieKeepsFirstOccurrence(t *testing.T) {
	records := []search.ServiceRecord{
		{Title: "First", Description: "dog walking"},
		{Title: "Second", Description: "dog walking"},
	}

	assert.Equal(t, "First", search.NewCatalog(records, nil).Match("walking").Title)

	records[0], records[1] = records[1], records[0]
	assert.Equal(t, "Second", search.NewCatalog(records, nil).Match("walking").Title)
}

func TestMatchOrderIndependentWithoutTies(t *testing.T) {
	records := sampleRecords()
	query := "my pet is sick and needs a vaccine"

	forward := search.NewCatalog(records, nil).Match(query)

	reversed := []search.ServiceRecord{records[2], records[1], records[0]}
	backward := search.NewCatalog(reversed, nil).Match(query)

	assert.Equal(t, "Vet Visit", forward.Title)
	assert.Equal(t, forward, backward)
}

func TestMatchScoreMonotonic(t *testing.T) {
	records := []search.ServiceRecord{
		{Title: "Walking", Description: "dog walking"},
		{Title: "Grooming", Description: "dog grooming"},
	}
	catalog := search.NewCatalog(records, nil)

	// tied on "dog": first wins
	assert.Equal(t, "Walking", catalog.Match("dog").Title)
	// an extra stem unique to Grooming lifts it above
	assert.Equal(t, "Grooming", catalog.Match("dog grooming").Title)
}

func TestMatchIsNotRatioBased(t *testing.T) {
	records := []search.ServiceRecord{
		{Title: "Narrow", Description: "dog"},
		{Title: "Broad", Description: "dog walking feeding cleaning brushing playing"},
	}
	catalog := search.NewCatalog(records, nil)

	// two overlaps beat a perfect one-token match
	assert.Equal(t, "Broad", catalog.Match("dog walking").Title)
}

func TestNewCatalogCopiesRecords(t *testing.T) {
	records := sampleRecords()
	catalog := search.NewCatalog(records, nil)

	records[0].Title = "Changed"
	records[0].Keywords[0] = "changed"

	entries := catalog.Entries()
	assert.Equal(t, "Grooming", entries[0].Service.Title)
	assert.Equal(t, "bath", entries[0].Service.Keywords[0])
	assert.Equal(t, 3, catalog.Len())
}

func TestRankAgreesWithMatch(t *testing.T) {
	catalog := search.NewCatalog(sampleRecords(), nil)

	ranked := catalog.Rank("my pet needs a bath while I travel", 0)

	require.Len(t, ranked, 3)
	assert.Equal(t, "Pet Sitting", ranked[0].Service.Title)
	assert.Equal(t, 3, ranked[0].Score)
	assert.Equal(t, "Grooming", ranked[1].Service.Title)
	assert.Equal(t, 2, ranked[1].Score)
	assert.Equal(t, "Vet Visit", ranked[2].Service.Title)
	assert.Equal(t, ranked[0].Service.Title, catalog.Match("my pet needs a bath while I travel").Title)

	assert.Len(t, catalog.Rank("my pet needs a bath while I travel", 1), 1)
	assert.Empty(t, catalog.Rank("xyzzyqux", 0))
}

func TestCatalogConcurrentReaders(t *testing.T) {
	catalog := search.NewCatalog(sampleRecords(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, "Vet Visit", catalog.Match("my dog is sick").Title)
			}
		}()
	}
	wg.Wait()
}

func TestCatalogLoaderBuildsOnce(t *testing.T) {
	var calls int32
	loader := search.NewCatalogLoader(func(ctx context.Context) ([]search.ServiceRecord, error) {
		atomic.AddInt32(&calls, 1)
		return sampleRecords(), nil
	}, nil)

	var wg sync.WaitGroup
	catalogs := make([]*search.Catalog, 8)
	for i := range catalogs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := loader.Get(context.Background())
			assert.NoError(t, err)
			catalogs[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, c := range catalogs {
		assert.Same(t, catalogs[0], c)
	}
}

func TestCatalogLoaderKeepsError(t *testing.T) {
	boom := errors.New("boom")
	loader := search.NewCatalogLoader(func(ctx context.Context) ([]search.ServiceRecord, error) {
		return nil, boom
	}, nil)

	_, err := loader.Get(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = loader.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}
