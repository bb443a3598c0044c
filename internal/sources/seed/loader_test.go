package seed

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `---
- text generation:
    - Chatter:
        href: https://chatter.example.com
        description: Small chat model
        tags: [chat, llm]
        author:
          name: alice
        top: true
- image generation:
    - Painter:
        href: https://painter.example.com
    - Hidden:
        href: {{APPDIR_VAR_HIDDEN_URL}}
`

func TestLoaderLoad(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(yamlPath, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	config, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(config) != 2 {
		t.Fatalf("Load() returned %d groups, want 2", len(config))
	}

	hidden := config[1]["image generation"][1]["Hidden"]
	if hidden.Href != "" {
		t.Errorf("template variable not stripped, href = %q", hidden.Href)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("- text generation: [unclosed")); err == nil {
		t.Error("Parse() should fail on invalid yaml")
	}
}
