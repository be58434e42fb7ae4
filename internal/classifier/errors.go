package classifier

import "errors"

// Artifact and model errors.
var (
	// ErrArtifactMissing is returned when a required artifact file (model
	// or feature names) is absent. The serving path surfaces this in the
	// prediction result's error field; it must never crash the process on
	// a per-request basis.
	ErrArtifactMissing = errors.New("model artifact missing")

	// ErrDimensionMismatch is returned when an input vector's length does
	// not match the model's weight vector. This indicates a feature-order
	// or artifact-pairing bug and is never recoverable per request.
	ErrDimensionMismatch = errors.New("input dimension mismatch")

	// ErrUnknownModelType is returned when a model artifact declares a
	// type this build does not implement.
	ErrUnknownModelType = errors.New("unknown model type")

	// ErrEmptyTrainingSet is returned when training is invoked without
	// any rows or with a single class only.
	ErrEmptyTrainingSet = errors.New("training set empty or single-class")
)
