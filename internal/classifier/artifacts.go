package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Artifact file names within the model directory.
const (
	ModelFileName        = "classifier.json"
	FeatureNamesFileName = "feature_names.json"
	ScalerFileName       = "scaler.json"
)

// modelTypeLogistic is the only model type this build ships. The type tag
// exists so future artifact formats fail with ErrUnknownModelType instead
// of silently mis-decoding.
const modelTypeLogistic = "logistic_regression"

// modelFile is the on-disk envelope for classifier.json.
type modelFile struct {
	ModelType string    `json:"model_type"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
}

// Artifacts is a loaded, validated model artifact set.
type Artifacts struct {
	// Model is the decoded classifier.
	Model Classifier

	// FeatureNames is the positional feature order the model was trained
	// with. Vectors must be serialized in exactly this order.
	FeatureNames []string

	// Scaler is the optional standardization step. Nil when the artifact
	// set was saved without one.
	Scaler *StandardScaler
}

// Loader loads an artifact set from a directory lazily and at most once
// per process, collapsing concurrent first loads into a single disk read.
//
// Design decision: singleflight instead of sync.Once so that a failed load
// (e.g. artifacts not yet trained) is retried on the next call rather than
// caching the error forever. Successful loads are cached until Reset.
type Loader struct {
	dir      string
	expected []string

	mu     sync.RWMutex
	cached *Artifacts
	group  singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExpectedNames makes Load verify the feature_names artifact against
// the given canonical order and fail loudly on any difference.
func WithExpectedNames(names []string) LoaderOption {
	return func(l *Loader) {
		l.expected = names
	}
}

// NewLoader returns a Loader reading artifacts from dir.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{dir: dir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory the Loader reads from.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the cached artifact set, reading it from disk on first use.
// Missing model or feature-name files return ErrArtifactMissing; a missing
// scaler file is not an error.
func (l *Loader) Load() (*Artifacts, error) {
	l.mu.RLock()
	if a := l.cached; a != nil {
		l.mu.RUnlock()
		return a, nil
	}
	l.mu.RUnlock()

	v, err, _ := l.group.Do("artifacts", func() (any, error) {
		a, err := LoadArtifacts(l.dir, l.expected)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cached = a
		l.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifacts), nil
}

// Reset drops the cached artifact set so the next Load re-reads disk.
// Used after training and in tests.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// LoadArtifacts reads and validates an artifact set from dir. When expected
// is non-nil the feature-name artifact must match it exactly.
func LoadArtifacts(dir string, expected []string) (*Artifacts, error) {
	var mf modelFile
	if err := readJSON(filepath.Join(dir, ModelFileName), &mf); err != nil {
		return nil, err
	}
	if mf.ModelType != modelTypeLogistic {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, mf.ModelType)
	}
	model := &LogisticRegression{Weights: mf.Weights, Bias: mf.Bias}

	var names []string
	if err := readJSON(filepath.Join(dir, FeatureNamesFileName), &names); err != nil {
		return nil, err
	}
	if len(names) != len(model.Weights) {
		return nil, fmt.Errorf("%w: %d feature names for %d weights",
			ErrDimensionMismatch, len(names), len(model.Weights))
	}
	if expected != nil {
		if err := verifyNames(names, expected); err != nil {
			return nil, err
		}
	}

	var scaler *StandardScaler
	var sc StandardScaler
	err := readJSON(filepath.Join(dir, ScalerFileName), &sc)
	switch {
	case err == nil:
		if len(sc.Mean) != len(model.Weights) {
			return nil, fmt.Errorf("%w: scaler has %d means for %d weights",
				ErrDimensionMismatch, len(sc.Mean), len(model.Weights))
		}
		scaler = &sc
	case errors.Is(err, ErrArtifactMissing):
		// Scaler is optional.
	default:
		return nil, err
	}

	return &Artifacts{Model: model, FeatureNames: names, Scaler: scaler}, nil
}

// SaveArtifacts writes a logistic-regression artifact set to dir, creating
// the directory if needed. A nil scaler omits scaler.json.
func SaveArtifacts(dir string, model *LogisticRegression, names []string, scaler *StandardScaler) error {
	if len(names) != len(model.Weights) {
		return fmt.Errorf("%w: %d feature names for %d weights",
			ErrDimensionMismatch, len(names), len(model.Weights))
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	mf := modelFile{ModelType: modelTypeLogistic, Weights: model.Weights, Bias: model.Bias}
	if err := writeJSON(filepath.Join(dir, ModelFileName), mf); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, FeatureNamesFileName), names); err != nil {
		return err
	}
	if scaler != nil {
		if err := writeJSON(filepath.Join(dir, ScalerFileName), scaler); err != nil {
			return err
		}
	}
	return nil
}

// verifyNames reports the first position where got and want disagree.
func verifyNames(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("feature order mismatch: artifact has %d names, expected %d",
			len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("feature order mismatch at position %d: artifact %q, expected %q",
				i, got[i], want[i])
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, filepath.Base(path))
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
