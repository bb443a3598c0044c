package domain

import (
	"strings"
	"time"
)

// Patch lists the fields a caller may set. Nil means "leave unchanged" on
// update and "use the default" on create.
//
// An Author with an empty name clears the author on update.
type Patch struct {
	DirectURL   *string   `json:"directUrl,omitempty"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	IsTop       *bool     `json:"isTop,omitempty"`
}

// NewRecord builds a fresh record from p. The result is normalized but not
// validated.
func NewRecord(p Patch, id string, now time.Time) App {
	ts := Millis(now)
	a := App{
		ID:        id,
		Status:    StatusActive,
		Tags:      []string{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	a = merge(a, p)
	if strings.TrimSpace(a.Description) == "" {
		a.Description = a.Name
	}
	return Normalize(a)
}

// ApplyPatch returns a copy of rec with p merged in and UpdatedAt set to now.
// ID, counters and CreatedAt are never touched.
func ApplyPatch(rec App, p Patch, now time.Time) App {
	out := merge(rec.Clone(), p)
	out.UpdatedAt = Millis(now)
	return Normalize(out)
}

// NewFromImport fills defaults on an externally supplied record while keeping
// its id, timestamps and counters. id replaces the record's own id when the
// caller decided it cannot be kept.
func NewFromImport(rec App, id string, now time.Time) App {
	out := rec.Clone()
	out.ID = id
	ts := Millis(now)
	if out.CreatedAt <= 0 {
		out.CreatedAt = ts
	}
	if out.UpdatedAt <= 0 {
		out.UpdatedAt = out.CreatedAt
	}
	if out.Status == "" {
		out.Status = StatusActive
	}
	if strings.TrimSpace(out.Description) == "" {
		out.Description = out.Name
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return Normalize(out)
}

// Normalize trims text fields, resolves the category and cleans up tags.
func Normalize(a App) App {
	a.DirectURL = strings.TrimSpace(a.DirectURL)
	a.Name = strings.TrimSpace(a.Name)
	a.Description = strings.TrimSpace(a.Description)
	a.Category = NormalizeCategory(string(a.Category))
	a.Status = Status(strings.ToLower(strings.TrimSpace(string(a.Status))))
	if a.Status == "" {
		a.Status = StatusActive
	}
	a.Tags = NormalizeTags(a.Tags)
	if a.Author != nil {
		author := Author{Name: strings.TrimSpace(a.Author.Name), URL: strings.TrimSpace(a.Author.URL)}
		if author.Name == "" && author.URL == "" {
			a.Author = nil
		} else {
			a.Author = &author
		}
	}
	return a
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates
// while keeping the first occurrence's position.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func merge(a App, p Patch) App {
	if p.DirectURL != nil {
		a.DirectURL = *p.DirectURL
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Category != nil {
		a.Category = Category(*p.Category)
	}
	if p.Tags != nil {
		a.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Author != nil {
		if strings.TrimSpace(p.Author.Name) == "" {
			a.Author = nil
		} else {
			author := *p.Author
			a.Author = &author
		}
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.IsTop != nil {
		a.IsTop = *p.IsTop
	}
	return a
}
