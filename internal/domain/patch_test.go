package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewRecordDefaults(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	rec := NewRecord(Patch{
		DirectURL: ptr(" https://demo.example.com/chat "),
		Name:      ptr("  Chat Demo "),
	}, "id-1", now)

	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "https://demo.example.com/chat", rec.DirectURL)
	assert.Equal(t, "Chat Demo", rec.Name)
	assert.Equal(t, "Chat Demo", rec.Description, "description falls back to name")
	assert.Equal(t, CategoryOther, rec.Category)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, []string{}, rec.Tags)
	assert.Nil(t, rec.Author)
	assert.Equal(t, now.UnixMilli(), rec.CreatedAt)
	assert.Equal(t, now.UnixMilli(), rec.UpdatedAt)
	assert.NoError(t, Validate(rec))
}

func TestNewRecordNormalizesTagsAndCategory(t *testing.T) {
	rec := NewRecord(Patch{
		DirectURL: ptr("https://a.example.com"),
		Name:      ptr("A"),
		Category:  ptr(" Image Generation "),
		Tags:      ptr([]string{"gan", " gan", "", "diffusion", "gan "}),
		Author:    &Author{Name: " ada "},
	}, "x", time.Now())

	assert.Equal(t, CategoryImage, rec.Category)
	assert.Equal(t, []string{"gan", "diffusion"}, rec.Tags)
	require.NotNil(t, rec.Author)
	assert.Equal(t, "ada", rec.Author.Name)
}

func TestLegacyCategoryLabels(t *testing.T) {
	assert.Equal(t, CategoryText, NormalizeCategory("文本生成"))
	assert.Equal(t, CategoryVision, NormalizeCategory("计算机视觉"))
	assert.Equal(t, CategoryOther, NormalizeCategory("  "))
	assert.Equal(t, Category("robotics"), NormalizeCategory("Robotics"))
}

func TestApplyPatch(t *testing.T) {
	created := time.UnixMilli(1_000)
	rec := NewRecord(Patch{
		DirectURL: ptr("https://a.example.com"),
		Name:      ptr("A"),
		Tags:      ptr([]string{"x"}),
		Author:    &Author{Name: "bob"},
	}, "id", created)
	rec.ViewCount = 7

	later := time.UnixMilli(5_000)
	got := ApplyPatch(rec, Patch{
		Name:   ptr("B"),
		IsTop:  ptr(true),
		Author: &Author{},
	}, later)

	assert.Equal(t, "B", got.Name)
	assert.True(t, got.IsTop)
	assert.Nil(t, got.Author, "empty author name clears the author")
	assert.Equal(t, []string{"x"}, got.Tags)
	assert.Equal(t, int64(7), got.ViewCount)
	assert.Equal(t, int64(1_000), got.CreatedAt)
	assert.Equal(t, int64(5_000), got.UpdatedAt)

	// the input is untouched
	assert.Equal(t, "A", rec.Name)
	require.NotNil(t, rec.Author)
}

func TestNewFromImportKeepsExternalFields(t *testing.T) {
	now := time.UnixMilli(9_000)
	rec := NewFromImport(App{
		ID:        "ignored",
		DirectURL: "https://imported.example.com",
		Name:      "Imported",
		Category:  "audio processing",
		ViewCount: 12,
		LikeCount: 3,
		CreatedAt: 2_000,
	}, "kept", now)

	assert.Equal(t, "kept", rec.ID)
	assert.Equal(t, int64(2_000), rec.CreatedAt)
	assert.Equal(t, int64(2_000), rec.UpdatedAt)
	assert.Equal(t, int64(12), rec.ViewCount)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, "Imported", rec.Description)

	fresh := NewFromImport(App{DirectURL: "https://b.example.com", Name: "B"}, "b", now)
	assert.Equal(t, int64(9_000), fresh.CreatedAt)
}
