package domain

import (
	"strings"
	"time"
)

// Category groups apps by the kind of model they demo.
type Category string

const (
	CategoryText   Category = "text generation"
	CategoryImage  Category = "image generation"
	CategoryAudio  Category = "audio processing"
	CategoryVision Category = "computer vision"
	CategoryOther  Category = "other"
)

// Categories is the closed set of accepted categories, in display order.
var Categories = []Category{CategoryText, CategoryImage, CategoryAudio, CategoryVision, CategoryOther}

// legacyCategories maps the labels written by the first version of the catalog.
var legacyCategories = map[string]Category{
	"文本生成":  CategoryText,
	"图像生成":  CategoryImage,
	"音频处理":  CategoryAudio,
	"计算机视觉": CategoryVision,
	"其他":    CategoryOther,
}

// Valid reports whether c belongs to Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory trims and lower-cases raw, resolves legacy labels and
// maps the empty string to CategoryOther. Unknown values are returned as-is
// so validation can reject them.
func NormalizeCategory(raw string) Category {
	s := strings.TrimSpace(raw)
	if s == "" {
		return CategoryOther
	}
	if c, ok := legacyCategories[s]; ok {
		return c
	}
	return Category(strings.ToLower(s))
}

// Status is the availability of the hosted demo.
type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusOffline     Status = "offline"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusOffline:
		return true
	}
	return false
}

// Author credits whoever built the demo.
type Author struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// App is one catalog entry describing an externally hosted demo application.
//
// DirectURL is unique across the catalog. ID is assigned once and never
// changes. Timestamps are epoch milliseconds.
type App struct {
	ID          string   `json:"id"`
	DirectURL   string   `json:"directUrl"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Tags        []string `json:"tags"`
	Author      *Author  `json:"author,omitempty"`
	Status      Status   `json:"status"`
	IsTop       bool     `json:"isTop"`
	ViewCount   int64    `json:"viewCount"`
	LikeCount   int64    `json:"likeCount"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// AuthorName returns the author's name or "" when the app has no author.
func (a App) AuthorName() string {
	if a.Author == nil {
		return ""
	}
	return a.Author.Name
}

// Clone returns a deep copy of a.
func (a App) Clone() App {
	out := a
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	if a.Author != nil {
		author := *a.Author
		out.Author = &author
	}
	return out
}

// Millis converts t to the epoch-millisecond representation stored on records.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Find returns the position of the app whose ID, or failing that DirectURL,
// equals key. It returns -1 when nothing matches.
func Find(apps []App, key string) int {
	if key == "" {
		return -1
	}
	for i := range apps {
		if apps[i].ID == key {
			return i
		}
	}
	for i := range apps {
		if apps[i].DirectURL == key {
			return i
		}
	}
	return -1
}

// URLSet returns the set of DirectURLs present in apps.
func URLSet(apps []App) map[string]struct{} {
	set := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		set[a.DirectURL] = struct{}{}
	}
	return set
}

// CloneAll deep-copies a slice of apps.
func CloneAll(apps []App) []App {
	out := make([]App, len(apps))
	for i := range apps {
		out[i] = apps[i].Clone()
	}
	return out
}
