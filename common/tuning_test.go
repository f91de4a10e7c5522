package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuning(t *testing.T) {
	tu := DefaultTuning()
	if err := tu.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if tu.LinearSlop != 0.005 || tu.Baumgarte != 0.2 || tu.VelocityThreshold != 1.0 || tu.MaxLinearCorrection != 0.2 {
		t.Errorf("reference values changed: %+v", tu)
	}
}

func TestLoadTuning(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		tu, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if tu != DefaultTuning() {
			t.Errorf("got %+v", tu)
		}
	})

	t.Run("partial file overrides only given keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tuning.yaml")
		if err := os.WriteFile(path, []byte("baumgarte: 0.1\nmax_sub_steps: 4\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		tu, err := LoadTuning(path)
		if err != nil {
			t.Fatal(err)
		}
		if tu.Baumgarte != 0.1 || tu.MaxSubSteps != 4 {
			t.Errorf("overrides not applied: %+v", tu)
		}
		if tu.LinearSlop != LinearSlop {
			t.Errorf("default lost: %v", tu.LinearSlop)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tuning.yaml")
		if err := os.WriteFile(path, []byte("linear_slop: -1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadTuning(path)
		if !errors.Is(err, ErrInvalidTuning) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("save then load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tuning.yaml")
		tu := DefaultTuning()
		tu.TimeToSleep = 1.5
		if err := tu.Save(path); err != nil {
			t.Fatal(err)
		}
		got, err := LoadTuning(path)
		if err != nil {
			t.Fatal(err)
		}
		if got != tu {
			t.Errorf("got %+v want %+v", got, tu)
		}
	})
}
