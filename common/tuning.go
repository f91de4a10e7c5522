package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Tuning holds the engine-wide solver and sleep parameters. They are not
// physical constants; the defaults match the reference engine so that
// trajectories stay comparable.
type Tuning struct {
	LinearSlop           float32 `yaml:"linear_slop"`
	AngularSlop          float32 `yaml:"angular_slop"`
	Baumgarte            float32 `yaml:"baumgarte"`
	TOIBaumgarte         float32 `yaml:"toi_baumgarte"`
	VelocityThreshold    float32 `yaml:"velocity_threshold"`
	MaxLinearCorrection  float32 `yaml:"max_linear_correction"`
	MaxAngularCorrection float32 `yaml:"max_angular_correction"`
	MaxTranslation       float32 `yaml:"max_translation"`
	MaxRotation          float32 `yaml:"max_rotation"`

	TimeToSleep           float32 `yaml:"time_to_sleep"`
	LinearSleepTolerance  float32 `yaml:"linear_sleep_tolerance"`
	AngularSleepTolerance float32 `yaml:"angular_sleep_tolerance"`

	MaxSubSteps    int `yaml:"max_sub_steps"`
	MaxTOIContacts int `yaml:"max_toi_contacts"`
}

var ErrInvalidTuning = errors.New("invalid tuning")

// DefaultTuning returns the reference values.
func DefaultTuning() Tuning {
	return Tuning{
		LinearSlop:           LinearSlop,
		AngularSlop:          AngularSlop,
		Baumgarte:            Baumgarte,
		TOIBaumgarte:         TOIBaumgarte,
		VelocityThreshold:    VelocityThreshold,
		MaxLinearCorrection:  MaxLinearCorrection,
		MaxAngularCorrection: MaxAngularCorrection,
		MaxTranslation:       MaxTranslation,
		MaxRotation:          MaxRotation,

		TimeToSleep:           TimeToSleep,
		LinearSleepTolerance:  LinearSleepTolerance,
		AngularSleepTolerance: AngularSleepTolerance,

		MaxSubSteps:    MaxSubSteps,
		MaxTOIContacts: MaxTOIContacts,
	}
}

// Validate reports the first out-of-range parameter.
func (t Tuning) Validate() error {
	positive := []struct {
		name  string
		value float32
	}{
		{"linear_slop", t.LinearSlop},
		{"angular_slop", t.AngularSlop},
		{"max_linear_correction", t.MaxLinearCorrection},
		{"max_angular_correction", t.MaxAngularCorrection},
		{"max_translation", t.MaxTranslation},
		{"max_rotation", t.MaxRotation},
	}
	for _, p := range positive {
		if !(p.value > 0) || !IsValid(p.value) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidTuning, p.name, p.value)
		}
	}

	if t.Baumgarte < 0 || t.Baumgarte > 1 {
		return fmt.Errorf("%w: baumgarte must be in [0,1], got %v", ErrInvalidTuning, t.Baumgarte)
	}
	if t.TOIBaumgarte < 0 || t.TOIBaumgarte > 1 {
		return fmt.Errorf("%w: toi_baumgarte must be in [0,1], got %v", ErrInvalidTuning, t.TOIBaumgarte)
	}
	if t.VelocityThreshold < 0 || t.TimeToSleep < 0 || t.LinearSleepTolerance < 0 || t.AngularSleepTolerance < 0 {
		return fmt.Errorf("%w: thresholds and tolerances must not be negative", ErrInvalidTuning)
	}
	if t.MaxSubSteps < 1 || t.MaxTOIContacts < 2 {
		return fmt.Errorf("%w: max_sub_steps >= 1 and max_toi_contacts >= 2 required", ErrInvalidTuning)
	}
	return nil
}

// LoadTuning reads a YAML tuning file. Keys that are absent keep their
// default value. A missing file yields DefaultTuning and no error.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, err
	}

	if err := yaml.Unmarshal(data, &t); err != nil {
		return DefaultTuning(), fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return DefaultTuning(), fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Save writes the tuning as YAML, creating the parent directory if needed.
func (t Tuning) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
