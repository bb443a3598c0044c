package seed

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/appdir/internal/domain"
)

// Mapper converts the catalog file to import records.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// MapApps returns one record per app with a usable href. Ids are derived
// from the href so that seeding an empty store twice yields the same ids.
// Group names become categories; the repository validates them.
func (m *Mapper) MapApps(config CatalogConfig) ([]domain.App, error) {
	var apps []domain.App

	for _, groupMap := range config {
		for category, appList := range groupMap {
			for _, appMap := range appList {
				for name, props := range appMap {
					if !usableHref(props.Href) {
						continue
					}

					a := domain.App{
						ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(props.Href)).String(),
						DirectURL:   props.Href,
						Name:        name,
						Description: props.Description,
						Category:    domain.NormalizeCategory(category),
						Tags:        props.Tags,
						Status:      domain.Status(props.Status),
						IsTop:       props.Top,
					}
					if props.Author != nil && props.Author.Name != "" {
						a.Author = &domain.Author{Name: props.Author.Name, URL: props.Author.URL}
					}
					apps = append(apps, a)
				}
			}
		}
	}

	if len(apps) == 0 {
		return nil, fmt.Errorf("no valid apps found in seed file")
	}
	return apps, nil
}

func usableHref(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
