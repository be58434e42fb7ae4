// Package classifier defines the scoring contract the prediction pipeline
// consumes and provides the built-in logistic-regression implementation,
// feature scaling, artifact persistence, and training utilities.
//
// The pipeline treats the trained model as opaque: anything implementing
// Classifier can serve predictions. Two optional capabilities refine the
// output when present:
//   - ProbabilityScorer: a calibrated probability instead of a hard 0/1.
//   - ImportanceProvider: global per-feature importances that power the
//     explainability ranking.
//
// Capability presence is queried with type assertions at scoring time, so
// swapping in a different model type requires no changes here.
//
// Artifacts (model, ordered feature names, optional scaler) are JSON files
// loaded lazily and exactly once per process via single-flight; see Loader.
package classifier
