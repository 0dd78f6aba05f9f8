package logofy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoringPolicy holds the constants of the quality heuristic and the
// acceptance threshold. DefaultPolicy reproduces the reference behaviour.
type ScoringPolicy struct {
	MinDimension      int     `yaml:"min_dimension"`      // below this on either side the score is 0
	SampleStride      int     `yaml:"sample_stride"`      // bytes between sampled pixels (4 bytes/pixel)
	BucketSize        int     `yaml:"bucket_size"`        // channel quantisation step
	DiversityBuckets  int     `yaml:"diversity_buckets"`  // buckets needed for full diversity credit
	DiversityWeight   float64 `yaml:"diversity_weight"`   // points for full diversity
	MonochromeBuckets int     `yaml:"monochrome_buckets"` // fewer buckets than this = placeholder-like
	MonochromePenalty float64 `yaml:"monochrome_penalty"`
	SizeNormalizer    int     `yaml:"size_normalizer"` // pixel area for full size credit
	SizeWeight        float64 `yaml:"size_weight"`
	TransparencyBonus float64 `yaml:"transparency_bonus"`
	MinAspectRatio    float64 `yaml:"min_aspect_ratio"`
	AspectPenalty     float64 `yaml:"aspect_penalty"`

	// AcceptThreshold: a probe is selectable only when its score is strictly greater.
	AcceptThreshold int `yaml:"accept_threshold"`

	// Coarse heuristic used when dimensions are known but pixels could not be read.
	FallbackMinDimension int `yaml:"fallback_min_dimension"`
	FallbackScore        int `yaml:"fallback_score"`
	FallbackLowScore     int `yaml:"fallback_low_score"`
}

// DefaultPolicy returns the reference scoring constants.
func DefaultPolicy() ScoringPolicy {
	return ScoringPolicy{
		MinDimension:         16,
		SampleStride:         16,
		BucketSize:           32,
		DiversityBuckets:     8,
		DiversityWeight:      40,
		MonochromeBuckets:    3,
		MonochromePenalty:    30,
		SizeNormalizer:       1024,
		SizeWeight:           30,
		TransparencyBonus:    15,
		MinAspectRatio:       0.7,
		AspectPenalty:        10,
		AcceptThreshold:      30,
		FallbackMinDimension: 32,
		FallbackScore:        50,
		FallbackLowScore:     10,
	}
}

func (p ScoringPolicy) isZero() bool {
	return p == ScoringPolicy{}
}

// Validate rejects policies that would divide by zero or never advance.
func (p ScoringPolicy) Validate() error {
	var errs []error
	if p.SampleStride < 4 || p.SampleStride%4 != 0 {
		errs = append(errs, fmt.Errorf("sample_stride must be a positive multiple of 4, got %d", p.SampleStride))
	}
	if p.BucketSize <= 0 || p.BucketSize > 256 {
		errs = append(errs, fmt.Errorf("bucket_size must be in 1..256, got %d", p.BucketSize))
	}
	if p.DiversityBuckets <= 0 {
		errs = append(errs, fmt.Errorf("diversity_buckets must be positive, got %d", p.DiversityBuckets))
	}
	if p.SizeNormalizer <= 0 {
		errs = append(errs, fmt.Errorf("size_normalizer must be positive, got %d", p.SizeNormalizer))
	}
	if p.MinAspectRatio < 0 || p.MinAspectRatio > 1 {
		errs = append(errs, fmt.Errorf("min_aspect_ratio must be in 0..1, got %g", p.MinAspectRatio))
	}
	if p.AcceptThreshold < 0 || p.AcceptThreshold > 100 {
		errs = append(errs, fmt.Errorf("accept_threshold must be in 0..100, got %d", p.AcceptThreshold))
	}
	if len(errs) > 0 {
		return fmt.Errorf("logofy: invalid scoring policy: %w", errors.Join(errs...))
	}
	return nil
}

// LoadPolicy parses YAML over DefaultPolicy, so omitted keys keep their
// reference values.
func LoadPolicy(data []byte) (ScoringPolicy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ScoringPolicy{}, fmt.Errorf("logofy: parse scoring policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return ScoringPolicy{}, err
	}
	return p, nil
}

// LoadPolicyFile reads a YAML scoring policy from path.
func LoadPolicyFile(path string) (ScoringPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScoringPolicy{}, fmt.Errorf("logofy: read scoring policy: %w", err)
	}
	return LoadPolicy(data)
}
