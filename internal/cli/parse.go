package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/appdir/internal/domain"
)

var csvRequired = []string{"name", "directUrl", "category"}

// ParsePatches reads a batch file: a JSON array of apps, or CSV whose
// header row names at least name, directUrl and category.
func ParsePatches(data []byte) ([]domain.Patch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("input is empty")
	}
	if trimmed[0] == '[' {
		var patches []domain.Patch
		if err := json.Unmarshal(trimmed, &patches); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		return patches, nil
	}
	return parseCSV(trimmed)
}

func parseCSV(data []byte) ([]domain.Patch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range csvRequired {
		if _, found := col[name]; !found {
			return nil, fmt.Errorf("CSV header is missing required column %q", name)
		}
	}

	patches := make([]domain.Patch, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(name string) (string, bool) {
			i, found := col[name]
			if !found {
				return "", false
			}
			if i >= len(row) {
				return "", true
			}
			return strings.TrimSpace(row[i]), true
		}

		var p domain.Patch
		if v, found := get("directUrl"); found {
			p.DirectURL = &v
		}
		if v, found := get("name"); found {
			p.Name = &v
		}
		if v, found := get("category"); found {
			p.Category = &v
		}
		if v, found := get("description"); found && v != "" {
			p.Description = &v
		}
		if v, found := get("tags"); found && v != "" {
			tags := strings.Split(v, ";")
			p.Tags = &tags
		}
		if v, found := get("author"); found && v != "" {
			url, _ := get("authorUrl")
			p.Author = &domain.Author{Name: v, URL: url}
		}
		if v, found := get("status"); found && v != "" {
			st := domain.Status(v)
			p.Status = &st
		}
		if v, found := get("isTop"); found && v != "" {
			top, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("line %d: isTop must be true or false, got %q", n+2, v)
			}
			p.IsTop = &top
		}
		patches = append(patches, p)
	}
	return patches, nil
}
