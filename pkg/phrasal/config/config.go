// Package config holds the alignment run profile and its validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/phrasal/pkg/phrasal/internalerr"
)

// Profile carries every tunable of an alignment or merge run. The zero
// value is not usable; start from Default.
type Profile struct {
	Merge bool `yaml:"merge"`

	// Alignment behaviour.
	NewAlignments int     `yaml:"new_alignments"` // stop when rate <= this, -1 = never
	IndexNgrams   int     `yaml:"index_ngrams"`   // treat n-grams up to this order as units
	MaxSentences  int     `yaml:"max_sentences"`  // lines held in memory at once, 0 = all
	Timeout       float64 `yaml:"timeout"`        // seconds, -1 = none
	LexWeights    bool    `yaml:"lex_weights"`

	// Filtering.
	DiscontiguousFields string `yaml:"discontiguous_fields"` // cut(1)-style spec
	MinLanguages        int    `yaml:"min_languages"`        // 0 = all languages
	MinSize             int    `yaml:"min_size"`
	MaxSize             int    `yaml:"max_size"` // 0 = unlimited

	// Formatting.
	Delimiter string `yaml:"delimiter"`
	Encoding  string `yaml:"encoding"`
	Languages string `yaml:"languages"` // comma-separated labels
	Format    string `yaml:"format"`    // plain | moses | html | tmx

	// Global.
	TempDir string `yaml:"temp_dir"`
	StoreDB string `yaml:"store_db"` // optional phrase table database path
	Quiet   bool   `yaml:"quiet"`
}

// Default returns the profile matching the aligner's built-in defaults.
func Default() Profile {
	return Profile{
		NewAlignments: -1,
		IndexNgrams:   1,
		Timeout:       -1,
		MinSize:       1,
		MaxSize:       7,
		Encoding:      "utf-8",
		Format:        "plain",
	}
}

// Load reads a YAML profile file over the defaults.
func Load(path string) (Profile, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

// Formats lists the supported output format names.
var Formats = []string{"plain", "moses", "html", "tmx"}

// ResolveFormat matches a possibly abbreviated format name against the
// supported set, the way the CLI accepts e.g. "mo" for "moses".
func ResolveFormat(name string) (string, error) {
	name = strings.ToLower(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty format name", internalerr.ErrUnknownFormat)
	}
	for _, f := range Formats {
		if strings.HasPrefix(f, name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", internalerr.ErrUnknownFormat, name)
}

// Validate checks option consistency before any file is opened.
func (p *Profile) Validate() error {
	if _, err := ResolveFormat(p.Format); err != nil {
		return err
	}
	if p.Merge {
		return nil
	}
	if p.IndexNgrams < 1 {
		return fmt.Errorf("%w: index order must be positive", internalerr.ErrInvalidConfig)
	}
	if p.MaxSize < 0 || p.MinSize < 1 {
		return fmt.Errorf("%w: phrase size bounds out of range", internalerr.ErrInvalidConfig)
	}
	if p.MaxSize > 0 && p.IndexNgrams > p.MaxSize {
		return fmt.Errorf("%w: index order %d exceeds max phrase size %d",
			internalerr.ErrInvalidConfig, p.IndexNgrams, p.MaxSize)
	}
	if p.MinLanguages < 0 {
		return fmt.Errorf("%w: negative language coverage", internalerr.ErrInvalidConfig)
	}
	// A delimiter implies discontinuities everywhere unless restricted.
	if p.Delimiter != "" && p.DiscontiguousFields == "" {
		p.DiscontiguousFields = "-"
	}
	if _, err := ParseFields(p.DiscontiguousFields, 0); err != nil {
		return err
	}
	return nil
}
