package model

import "time"

const (
	DefaultSilenceThreshold            = 3 * time.Second
	DefaultAutoPurgeAge                = 24 * time.Hour
	DefaultMaxHistorySize              = 1000
	DefaultMinPatternLength            = 3
	DefaultMaxPatternLength            = 64
	DefaultAutoSaveComplexityThreshold = 0.8
)

// DetectionConfig controls segmentation, retention and auto-save.
// Changes apply to subsequent calls only; finalized patterns are not
// re-evaluated.
type DetectionConfig struct {
	SilenceThreshold            time.Duration `json:"silence_threshold"`
	AutoPurgeAge                time.Duration `json:"auto_purge_age"`
	MaxHistorySize              int           `json:"max_history_size"`
	MinPatternLength            int           `json:"min_pattern_length"`
	MaxPatternLength            int           `json:"max_pattern_length"`
	DetectOnContextChange       bool          `json:"detect_on_context_change"`
	AutoSaveInterestingPatterns bool          `json:"auto_save_interesting_patterns"`
	AutoSaveComplexityThreshold float64       `json:"auto_save_complexity_threshold"`
}

// DefaultDetectionConfig returns the default detection settings.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		SilenceThreshold:            DefaultSilenceThreshold,
		AutoPurgeAge:                DefaultAutoPurgeAge,
		MaxHistorySize:              DefaultMaxHistorySize,
		MinPatternLength:            DefaultMinPatternLength,
		MaxPatternLength:            DefaultMaxPatternLength,
		DetectOnContextChange:       true,
		AutoSaveComplexityThreshold: DefaultAutoSaveComplexityThreshold,
	}
}

// ConfigPatch is a partial update of DetectionConfig. Nil fields are left
// untouched. Values are not range-checked.
type ConfigPatch struct {
	SilenceThreshold            *time.Duration `json:"silence_threshold,omitempty"`
	AutoPurgeAge                *time.Duration `json:"auto_purge_age,omitempty"`
	MaxHistorySize              *int           `json:"max_history_size,omitempty"`
	MinPatternLength            *int           `json:"min_pattern_length,omitempty"`
	MaxPatternLength            *int           `json:"max_pattern_length,omitempty"`
	DetectOnContextChange       *bool          `json:"detect_on_context_change,omitempty"`
	AutoSaveInterestingPatterns *bool          `json:"auto_save_interesting_patterns,omitempty"`
	AutoSaveComplexityThreshold *float64       `json:"auto_save_complexity_threshold,omitempty"`
}

// Apply returns c with every non-nil field of p merged in.
func (p ConfigPatch) Apply(c DetectionConfig) DetectionConfig {
	if p.SilenceThreshold != nil {
		c.SilenceThreshold = *p.SilenceThreshold
	}
	if p.AutoPurgeAge != nil {
		c.AutoPurgeAge = *p.AutoPurgeAge
	}
	if p.MaxHistorySize != nil {
		c.MaxHistorySize = *p.MaxHistorySize
	}
	if p.MinPatternLength != nil {
		c.MinPatternLength = *p.MinPatternLength
	}
	if p.MaxPatternLength != nil {
		c.MaxPatternLength = *p.MaxPatternLength
	}
	if p.DetectOnContextChange != nil {
		c.DetectOnContextChange = *p.DetectOnContextChange
	}
	if p.AutoSaveInterestingPatterns != nil {
		c.AutoSaveInterestingPatterns = *p.AutoSaveInterestingPatterns
	}
	if p.AutoSaveComplexityThreshold != nil {
		c.AutoSaveComplexityThreshold = *p.AutoSaveComplexityThreshold
	}
	return c
}

// Empty reports whether the patch changes nothing.
func (p ConfigPatch) Empty() bool {
	return p == ConfigPatch{}
}
