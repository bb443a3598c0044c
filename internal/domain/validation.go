package domain

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLen        = 100
	MaxDescriptionLen = 500
	MaxTagLen         = 50
	MaxTags           = 20
)

// Violations returns every rule a broken. An empty result means a is valid.
func Violations(a App) []string {
	var out []string

	switch {
	case a.DirectURL == "":
		out = append(out, "directUrl is required")
	case !validURL(a.DirectURL):
		out = append(out, "directUrl must be an absolute http or https URL")
	}

	switch n := utf8.RuneCountInString(a.Name); {
	case n == 0:
		out = append(out, "name is required")
	case n > MaxNameLen:
		out = append(out, fmt.Sprintf("name must be at most %d characters", MaxNameLen))
	}

	switch n := utf8.RuneCountInString(a.Description); {
	case n == 0:
		out = append(out, "description is required")
	case n > MaxDescriptionLen:
		out = append(out, fmt.Sprintf("description must be at most %d characters", MaxDescriptionLen))
	}

	if !a.Category.Valid() {
		out = append(out, fmt.Sprintf("invalid category %q, expected one of: %s", a.Category, categoryList()))
	}
	if !a.Status.Valid() {
		out = append(out, fmt.Sprintf("invalid status %q", a.Status))
	}

	if len(a.Tags) > MaxTags {
		out = append(out, fmt.Sprintf("at most %d tags allowed", MaxTags))
	}
	for _, t := range a.Tags {
		if utf8.RuneCountInString(t) > MaxTagLen {
			out = append(out, fmt.Sprintf("tag %q exceeds %d characters", t, MaxTagLen))
		}
	}

	if a.Author != nil {
		if a.Author.Name == "" {
			out = append(out, "author.name is required")
		}
		if a.Author.URL != "" && !validURL(a.Author.URL) {
			out = append(out, "author.url must be an absolute http or https URL")
		}
	}

	if a.ViewCount < 0 {
		out = append(out, "viewCount must not be negative")
	}
	if a.LikeCount < 0 {
		out = append(out, "likeCount must not be negative")
	}
	return out
}

// Validate wraps Violations into a VALIDATION_ERROR.
func Validate(a App) error {
	if v := Violations(a); len(v) > 0 {
		return ValidationFailed("invalid app: "+strings.Join(v, "; "), v)
	}
	return nil
}

// ValidateBatch checks every record and reports violations keyed by the
// record's position in the batch.
func ValidateBatch(apps []App) error {
	details := map[int][]string{}
	for i, a := range apps {
		if v := Violations(a); len(v) > 0 {
			details[i] = v
		}
	}
	if len(details) == 0 {
		return nil
	}
	return ValidationFailed(fmt.Sprintf("%d of %d items are invalid", len(details), len(apps)), details)
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func categoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
