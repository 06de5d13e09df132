package manifest

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item describes one file to download.
type Item struct {
	// URL is the source URL. It may be relative if the manifest is
	// resolved against a base URL.
	URL string `yaml:"url"`

	// FileName is the name of the destination file inside the output
	// directory. It must not contain path separators.
	FileName string `yaml:"file"`

	// SHA256 is the expected lowercase hex digest of the completed file.
	// Empty means there is no hash to validate against.
	SHA256 string `yaml:"sha256,omitempty"`

	// Gunzip marks the file for decompression after download.
	Gunzip bool `yaml:"gunzip,omitempty"`
}

// Manifest is an ordered list of download items.
type Manifest struct {
	Items []Item
}

// yamlManifest accepts both the record layout and the legacy
// parallel-list layout.
type yamlManifest struct {
	Items  []Item   `yaml:"items"`
	URLs   []string `yaml:"urls"`
	Files  []string `yaml:"files"`
	Hashes []string `yaml:"hashes"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var ym yamlManifest
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	m := &Manifest{Items: ym.Items}

	if len(ym.URLs) > 0 || len(ym.Files) > 0 {
		if len(ym.URLs) != len(ym.Files) {
			return nil, fmt.Errorf("manifest: urls and files must have equal length (got %d and %d)",
				len(ym.URLs), len(ym.Files))
		}
		for i, u := range ym.URLs {
			item := Item{URL: u, FileName: ym.Files[i]}
			// The hash list may be shorter than the url list;
			// missing entries mean "no hash to validate".
			if i < len(ym.Hashes) {
				item.SHA256 = ym.Hashes[i]
			}
			m.Items = append(m.Items, item)
		}
	}

	return m, nil
}

// Validate checks every item for a usable URL and file name.
func (m *Manifest) Validate() error {
	if len(m.Items) == 0 {
		return fmt.Errorf("manifest: no items")
	}
	for i, item := range m.Items {
		if item.URL == "" {
			return fmt.Errorf("manifest: item %d has no url", i)
		}
		if item.FileName == "" {
			return fmt.Errorf("manifest: item %d has no file name", i)
		}
		if strings.ContainsAny(item.FileName, `/\`) || item.FileName == ".." {
			return fmt.Errorf("manifest: item %d file name %q must not contain path separators", i, item.FileName)
		}
	}
	return nil
}

// Resolve joins relative item URLs onto base. Absolute URLs are left alone.
func (m *Manifest) Resolve(base string) {
	if base == "" {
		return
	}
	base = strings.TrimSuffix(base, "/")
	for i, item := range m.Items {
		if strings.Contains(item.URL, "://") {
			continue
		}
		m.Items[i].URL = base + "/" + strings.TrimPrefix(item.URL, "/")
	}
}
