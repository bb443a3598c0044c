package domain

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit from overflowing.
	MaxPage = math.MaxInt / MaxLimit
)

// Query carries the list parameters. Empty fields do not filter.
type Query struct {
	Category string `json:"category,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Author   string `json:"author,omitempty"`
	Q        string `json:"q,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Order    string `json:"order,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Normalized clamps paging and resolves the category filter.
func (q Query) Normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if strings.TrimSpace(q.Category) != "" {
		q.Category = string(NormalizeCategory(q.Category))
	} else {
		q.Category = ""
	}
	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	if q.Order != "desc" {
		q.Order = "asc"
	}
	return q
}

// ListResult is one page of a query.
type ListResult struct {
	Items []App  `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Stats *Stats `json:"stats,omitempty"`
}

// Filter keeps the apps matching every non-empty filter of q.
func Filter(apps []App, q Query) []App {
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	category := ""
	if strings.TrimSpace(q.Category) != "" {
		category = string(NormalizeCategory(q.Category))
	}

	out := make([]App, 0, len(apps))
	for _, a := range apps {
		if category != "" && string(a.Category) != category {
			continue
		}
		if q.Tag != "" && !slices.Contains(a.Tags, q.Tag) {
			continue
		}
		if q.Author != "" && a.AuthorName() != q.Author {
			continue
		}
		if needle != "" && !matchesText(a, needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesText(a App, needle string) bool {
	if strings.Contains(strings.ToLower(a.Name), needle) ||
		strings.Contains(strings.ToLower(a.Description), needle) {
		return true
	}
	for _, t := range a.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

var sorters = map[string]func(a, b App) int{
	"name":      func(a, b App) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"category":  func(a, b App) int { return cmp.Compare(a.Category, b.Category) },
	"createdAt": func(a, b App) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) },
	"updatedAt": func(a, b App) int { return cmp.Compare(a.UpdatedAt, b.UpdatedAt) },
	"viewCount": func(a, b App) int { return cmp.Compare(a.ViewCount, b.ViewCount) },
	"likeCount": func(a, b App) int { return cmp.Compare(a.LikeCount, b.LikeCount) },
	"status":    func(a, b App) int { return cmp.Compare(a.Status, b.Status) },
}

// SortFields lists the accepted sort keys.
func SortFields() []string {
	keys := make([]string, 0, len(sorters))
	for k := range sorters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Sort orders apps by field in place. Ties keep their input order whatever
// the direction. An unknown or empty field leaves the order unchanged.
func Sort(apps []App, field, order string) {
	less, ok := sorters[field]
	if !ok {
		return
	}
	if order == "desc" {
		slices.SortStableFunc(apps, func(a, b App) int { return less(b, a) })
		return
	}
	slices.SortStableFunc(apps, less)
}

// Paginate returns the page-th window of limit items (1-based).
func Paginate(apps []App, page, limit int) []App {
	start := (page - 1) * limit
	if start >= len(apps) || start < 0 {
		return []App{}
	}
	end := min(start+limit, len(apps))
	return apps[start:end]
}

// Apply runs filter, sort and pagination over apps without mutating them.
func Apply(apps []App, q Query) ListResult {
	q = q.Normalized()
	matched := Filter(apps, q)
	Sort(matched, q.Sort, q.Order)
	return ListResult{
		Items: Paginate(matched, q.Page, q.Limit),
		Total: len(matched),
		Page:  q.Page,
		Limit: q.Limit,
	}
}
