package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteConfigFile is the MkDocs configuration file name.
const SiteConfigFile = "mkdocs.yml"

// SiteConfig is the subset of mkdocs.yml metadocs cares about.
type SiteConfig struct {
	SiteName string `yaml:"site_name"`
	SiteDir  string `yaml:"site_dir,omitempty"`
	DocsDir  string `yaml:"docs_dir,omitempty"`
}

func (s *SiteConfig) applyDefaults() {
	if s.SiteDir == "" {
		s.SiteDir = DefaultSiteDir
	}
	if s.DocsDir == "" {
		s.DocsDir = DefaultDocsDir
	}
}

// ReadSiteConfig parses an mkdocs.yml. Keys other than the ones in
// SiteConfig, including python-specific tags, are ignored.
func ReadSiteConfig(path string) (SiteConfig, error) {
	var site SiteConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return site, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return site, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return site, nil
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			continue
		}
		switch key {
		case "site_name":
			site.SiteName = val.Value
		case "site_dir":
			site.SiteDir = val.Value
		case "docs_dir":
			site.DocsDir = val.Value
		}
	}
	return site, nil
}

// WriteSiteConfig renders a minimal mkdocs.yml for a new workspace.
func WriteSiteConfig(path string, site SiteConfig) error {
	data, err := yaml.Marshal(site)
	if err != nil {
		return fmt.Errorf("marshal site config: %w", err)
	}
	// #nosec G306 -- mkdocs.yml is a user-editable project file
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
