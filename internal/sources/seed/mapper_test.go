package seed

import (
	"testing"

	"github.com/MrSnakeDoc/appdir/internal/domain"
)

func TestMapperMapApps(t *testing.T) {
	config, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	apps, err := NewMapper().MapApps(config)
	if err != nil {
		t.Fatalf("MapApps() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("MapApps() returned %d apps, want 2 (the templated href is skipped)", len(apps))
	}

	chatter := apps[0]
	if chatter.Name != "Chatter" || chatter.Category != domain.CategoryText {
		t.Errorf("first app = %+v", chatter)
	}
	if !chatter.IsTop || chatter.AuthorName() != "alice" || len(chatter.Tags) != 2 {
		t.Errorf("first app props not mapped: %+v", chatter)
	}
	if apps[1].Category != domain.CategoryImage {
		t.Errorf("second app category = %q", apps[1].Category)
	}
}

func TestMapperStableIDs(t *testing.T) {
	config, _ := Parse([]byte(sampleCatalog))
	first, _ := NewMapper().MapApps(config)
	second, _ := NewMapper().MapApps(config)
	if first[0].ID == "" || first[0].ID != second[0].ID {
		t.Errorf("ids should be derived from href: %q vs %q", first[0].ID, second[0].ID)
	}
	if first[0].ID == first[1].ID {
		t.Error("different hrefs must give different ids")
	}
}

func TestMapperEmptyConfig(t *testing.T) {
	if _, err := NewMapper().MapApps(CatalogConfig{}); err == nil {
		t.Error("MapApps() should fail when no app is usable")
	}
}

func TestUsableHref(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"https://a.example", true},
		{"http://a.example/x", true},
		{"", false},
		{"ftp://a.example", false},
		{"/relative", false},
	}
	for _, tt := range tests {
		if got := usableHref(tt.href); got != tt.want {
			t.Errorf("usableHref(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}
