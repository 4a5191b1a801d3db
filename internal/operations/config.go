package operations

import (
	"time"

	"nexusprep/internal/config"
	"nexusprep/internal/fuzzy"
	"nexusprep/internal/mapping"
	"nexusprep/internal/normalization"
)

// Config represents the pipeline configuration
type Config struct {
	// Column mapper
	SampleSize       int `json:"sample_size"`
	MappingThreshold int `json:"mapping_threshold"`

	// State normalizer and fuzzy matching
	FlagThreshold  int     `json:"flag_threshold"`
	FuzzyThreshold float64 `json:"fuzzy_threshold"`

	// Cap on the row numbers listed per issue
	MaxAffectedRows int `json:"max_affected_rows"`

	// Firm used when a run does not name one
	DefaultFirm string `json:"default_firm"`

	// Step-specific timeouts
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`
}

// NewConfig returns the default pipeline configuration
func NewConfig() *Config {
	return &Config{
		SampleSize:       100,
		MappingThreshold: 50,
		FlagThreshold:    80,
		FuzzyThreshold:   fuzzy.DefaultThreshold,
		MaxAffectedRows:  500,
		DefaultFirm:      "default",
		StageTimeouts:    make(map[string]time.Duration),
	}
}

// ConfigFrom derives the pipeline configuration from the application config.
func ConfigFrom(cfg *config.Config) *Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	v := cfg.Validation
	if v.SampleSize > 0 {
		c.SampleSize = v.SampleSize
	}
	if v.MappingThreshold > 0 {
		c.MappingThreshold = v.MappingThreshold
	}
	if v.FlagThreshold > 0 {
		c.FlagThreshold = v.FlagThreshold
	}
	if v.FuzzyThreshold > 0 {
		c.FuzzyThreshold = v.FuzzyThreshold
	}
	if v.MaxAffectedRows > 0 {
		c.MaxAffectedRows = v.MaxAffectedRows
	}
	if cfg.Learning.DefaultFirm != "" {
		c.DefaultFirm = cfg.Learning.DefaultFirm
	}
	return c
}

// GetStageTimeout returns the timeout for a specific step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok && timeout > 0 {
		return timeout
	}
	return DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a specific step
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}

// MapperOptions returns the column mapper settings.
func (c *Config) MapperOptions() mapping.Options {
	return mapping.Options{
		SampleSize:       c.SampleSize,
		MappingThreshold: c.MappingThreshold,
		Matcher:          fuzzy.NewMatcher(c.FuzzyThreshold),
	}
}

// NormalizerOptions returns the state normalizer settings.
func (c *Config) NormalizerOptions() normalization.Options {
	return normalization.Options{
		Matcher:         fuzzy.NewMatcher(c.FuzzyThreshold),
		FlagThreshold:   c.FlagThreshold,
		MaxAffectedRows: c.MaxAffectedRows,
	}
}
