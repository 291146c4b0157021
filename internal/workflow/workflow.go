// Package workflow loads and validates merge workflow files: a YAML
// declaration of the matching strategy and the aligner/merger options.
package workflow

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/concordkit/concord/core/align"
	cerrors "github.com/concordkit/concord/core/errors"
	"github.com/concordkit/concord/core/merge"
	"github.com/concordkit/concord/core/textdiff"
)

// Config declares one merge workflow.
type Config struct {
	// Strategy selects hit matching: stable-id, reference or positional.
	Strategy string `yaml:"strategy"`

	// Threshold is the aligner's pass-1 anchor length.
	Threshold int `yaml:"threshold"`

	// Ratio is the aligner's minimum similarity estimate, in (0,1].
	Ratio float64 `yaml:"ratio"`

	// Marker chunks token streams at this form before alignment.
	Marker string `yaml:"marker,omitempty"`

	// OnePass disables the two-pass diff.
	OnePass bool `yaml:"one_pass,omitempty"`

	// Overwrite lets incoming tag values replace existing ones.
	Overwrite bool `yaml:"overwrite,omitempty"`

	// IDTag pairs tokens by this shared tag instead of aligning forms.
	IDTag string `yaml:"id_tag,omitempty"`

	// AddHits appends unmatched incoming hits.
	AddHits bool `yaml:"add_hits,omitempty"`

	// DelHits removes target hits with no incoming counterpart.
	DelHits bool `yaml:"del_hits,omitempty"`

	// MergeTokens enables token-level annotation merging.
	MergeTokens bool `yaml:"merge_tokens,omitempty"`
}

// Default returns the configuration used when no workflow file is given.
func Default() Config {
	return Config{
		Strategy:    merge.StrategyStableID.String(),
		Threshold:   textdiff.DefaultThreshold,
		Ratio:       align.DefaultRatio,
		MergeTokens: true,
	}
}

// Load reads and validates a workflow file. Fields absent from the file
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, cerrors.Wrapf(err, "reading workflow %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a workflow document.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, &cerrors.ParseError{Format: "workflow", Message: "decoding YAML", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against the closed option domains.
func (c *Config) Validate() error {
	if _, ok := merge.ParseStrategy(c.Strategy); !ok {
		return cerrors.NewConfig("strategy",
			fmt.Sprintf("unknown strategy %q (want stable-id, reference or positional)", c.Strategy))
	}
	if c.Threshold < 1 {
		return cerrors.NewConfig("threshold",
			fmt.Sprintf("threshold %d out of range (must be >= 1)", c.Threshold))
	}
	if c.Ratio <= 0 || c.Ratio > 1 {
		return cerrors.NewConfig("ratio",
			fmt.Sprintf("ratio %v out of range (must be in (0,1])", c.Ratio))
	}
	return nil
}

// Aligner builds the aligner declared by the configuration.
func (c *Config) Aligner() *align.Aligner {
	al := align.New()
	al.Threshold = c.Threshold
	al.Ratio = c.Ratio
	al.OnePass = c.OnePass
	return al
}

// Merger builds the concordance merger declared by the configuration.
func (c *Config) Merger() (*merge.ConcordanceMerger, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	strategy, _ := merge.ParseStrategy(c.Strategy)

	m := &merge.ConcordanceMerger{
		Strategy:   strategy,
		AddHits:    c.AddHits,
		DelHits:    c.DelHits,
		UpdateTags: c.Overwrite,
	}
	if c.MergeTokens {
		m.TokenMerger = &merge.TokenMerger{
			IDTag:       c.IDTag,
			Overwrite:   c.Overwrite,
			BlockMarker: c.Marker,
			Aligner:     c.Aligner(),
		}
	}
	return m, nil
}
