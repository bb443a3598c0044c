package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func catalog() []App {
	return []App{
		{ID: "1", Name: "Chatter", Description: "LLM chat", Category: CategoryText, Tags: []string{"llm", "chat"}, Author: &Author{Name: "ann"}, ViewCount: 5, CreatedAt: 10},
		{ID: "2", Name: "painter", Description: "Diffusion art", Category: CategoryImage, Tags: []string{"diffusion"}, Author: &Author{Name: "bob"}, ViewCount: 9, CreatedAt: 20},
		{ID: "3", Name: "Speaker", Description: "Voice synthesis", Category: CategoryAudio, Tags: []string{"tts"}, ViewCount: 5, CreatedAt: 30},
		{ID: "4", Name: "Summarizer", Description: "Summaries", Category: CategoryText, Tags: []string{"llm"}, Author: &Author{Name: "ann"}, ViewCount: 1, CreatedAt: 40},
	}
}

func ids(apps []App) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "no filters", query: Query{}, want: []string{"1", "2", "3", "4"}},
		{name: "category", query: Query{Category: "text generation"}, want: []string{"1", "4"}},
		{name: "legacy category label", query: Query{Category: "文本生成"}, want: []string{"1", "4"}},
		{name: "tag", query: Query{Tag: "llm"}, want: []string{"1", "4"}},
		{name: "author", query: Query{Author: "bob"}, want: []string{"2"}},
		{name: "q over name", query: Query{Q: "SPEAK"}, want: []string{"3"}},
		{name: "q over description", query: Query{Q: "art"}, want: []string{"2"}},
		{name: "q over tags", query: Query{Q: "tts"}, want: []string{"3"}},
		{name: "conjunctive", query: Query{Category: "text generation", Q: "summ"}, want: []string{"4"}},
		{name: "no match", query: Query{Tag: "llm", Author: "bob"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(catalog(), tt.query)))
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	q := Query{Tag: "llm", Q: "a"}
	once := Filter(catalog(), q)
	twice := Filter(once, q)
	assert.Equal(t, once, twice)
}

func TestSortStableBothDirections(t *testing.T) {
	asc := catalog()
	Sort(asc, "viewCount", "asc")
	assert.Equal(t, []string{"4", "1", "3", "2"}, ids(asc))

	desc := catalog()
	Sort(desc, "viewCount", "desc")
	assert.Equal(t, []string{"2", "1", "3", "4"}, ids(desc), "ties keep insertion order")

	byName := catalog()
	Sort(byName, "name", "asc")
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(byName), "name sort ignores case")

	unknown := catalog()
	Sort(unknown, "popularity", "desc")
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(unknown))
}

func TestPaginate(t *testing.T) {
	apps := catalog()
	assert.Equal(t, []string{"1", "2"}, ids(Paginate(apps, 1, 2)))
	assert.Equal(t, []string{"3", "4"}, ids(Paginate(apps, 2, 2)))
	assert.Equal(t, []string{"4"}, ids(Paginate(apps, 2, 3)))
	assert.Empty(t, Paginate(apps, 3, 2))
}

func TestQueryNormalized(t *testing.T) {
	q := Query{Page: 0, Limit: 500, Order: "DESC"}.Normalized()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, "desc", q.Order)

	q = Query{Limit: -3}.Normalized()
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, "asc", q.Order)
}

func TestHugePageIsEmpty(t *testing.T) {
	q := Query{Page: math.MaxInt, Limit: MaxLimit}.Normalized()
	assert.Equal(t, MaxPage, q.Page)

	res := Apply(catalog(), Query{Page: math.MaxInt, Limit: MaxLimit})
	assert.Empty(t, res.Items)
	assert.Equal(t, 4, res.Total)
}

func TestApply(t *testing.T) {
	res := Apply(catalog(), Query{Category: "text generation", Sort: "createdAt", Order: "desc", Limit: 1})
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.Limit)
	assert.Equal(t, []string{"4"}, ids(res.Items))
}
