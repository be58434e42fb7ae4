// Package predict turns an input URL into a classification verdict: it
// assembles the ordered feature vector, scores it with the loaded
// classifier artifacts, and attaches an explainability ranking.
//
// The package has one hard rule: a prediction request never surfaces an
// unhandled fault. Missing artifacts, malformed URLs, and dimension bugs
// all come back as a PredictionResult with the Error field set, so the CLI
// and the HTTP server can render failures per URL without crashing.
package predict
