package seed

// CatalogConfig is the top-level structure of the seed file: a list of
// category groups, each holding a list of single-key maps from app name to
// its properties, so the file keeps the order it was written in.
type CatalogConfig []map[string][]map[string]AppProps

// AppProps contains the properties of one seeded app.
type AppProps struct {
	Href        string      `yaml:"href"`
	Description string      `yaml:"description,omitempty"`
	Tags        []string    `yaml:"tags,omitempty"`
	Author      *AuthorProp `yaml:"author,omitempty"`
	Status      string      `yaml:"status,omitempty"`
	Top         bool        `yaml:"top,omitempty"`
}

type AuthorProp struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url,omitempty"`
}
