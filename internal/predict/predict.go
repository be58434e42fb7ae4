package predict

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/phishscan/phishscan/internal/classifier"
	"github.com/phishscan/phishscan/internal/feature"
	"github.com/phishscan/phishscan/internal/model"
	"github.com/phishscan/phishscan/internal/safeurl"
)

// contributionEpsilon keeps a feature with a non-zero importance visible in
// the ranking even when its value for this sample is exactly zero.
const contributionEpsilon = 1e-6

// topContributions caps the explanation length.
const topContributions = 10

// Predictor classifies URLs end to end: feature assembly, scoring, and the
// explainability ranking. Construct it once and share it; the underlying
// artifact loader caches the model after the first prediction.
type Predictor struct {
	loader      *classifier.Loader
	assembler   *feature.Assembler
	logger      *slog.Logger
	skipLookups bool
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithAssembler replaces the feature assembler.
func WithAssembler(a *feature.Assembler) Option {
	return func(p *Predictor) {
		p.assembler = a
	}
}

// WithLogger sets the logger for prediction traces.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Predictor) {
		p.logger = logger
	}
}

// WithSkipLookups disables WHOIS and DNS lookups for every prediction;
// lookup-dependent features are imputed to 0.
func WithSkipLookups() Option {
	return func(p *Predictor) {
		p.skipLookups = true
	}
}

// New creates a Predictor reading model artifacts through loader.
func New(loader *classifier.Loader, opts ...Option) *Predictor {
	p := &Predictor{loader: loader}
	for _, opt := range opts {
		opt(p)
	}
	if p.assembler == nil {
		p.assembler = feature.NewAssembler()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Predict classifies one URL. fetchContent enables retrieving the live page
// through the safe-fetch guard for content features; when false, content
// features fall back to their defaults.
//
// Predict never returns an error: every failure mode lands in the result's
// Error field with the other fields left empty.
func (p *Predictor) Predict(ctx context.Context, rawURL string, fetchContent bool) model.PredictionResult {
	start := time.Now()

	normalized, err := safeurl.Normalize(rawURL)
	if err != nil {
		return model.NewErrorResult(rawURL, err.Error())
	}

	artifacts, err := p.loader.Load()
	if err != nil {
		return model.NewErrorResult(rawURL, fmt.Sprintf("load model: %v", err))
	}

	vec, err := p.assembler.Assemble(ctx, normalized, feature.AssembleOptions{
		FetchContent: fetchContent,
		SkipLookups:  p.skipLookups,
	})
	if err != nil {
		return model.NewErrorResult(rawURL, fmt.Sprintf("assemble features: %v", err))
	}

	label, risk, contributions, err := Score(vec.ValuesInOrder(artifacts.FeatureNames), artifacts)
	if err != nil {
		return model.NewErrorResult(rawURL, err.Error())
	}

	p.logger.Debug("prediction complete",
		"classification", label,
		"risk_score", risk,
		"elapsed", time.Since(start),
	)

	return model.PredictionResult{
		URL:                     rawURL,
		Classification:          label,
		RiskScore:               risk,
		TopContributingFeatures: contributions,
		ScannedAt:               time.Now(),
	}
}

// Score classifies one assembled vector against a loaded artifact set and
// returns the label, the 0-100 risk score (one decimal), and the ranked
// contribution list. The scaler, when present, applies to scoring only;
// contributions are computed from the raw feature values.
func Score(values []float64, artifacts *classifier.Artifacts) (string, float64, []model.Contribution, error) {
	if len(values) != len(artifacts.FeatureNames) {
		return "", 0, nil, fmt.Errorf("%w: vector has %d values, model expects %d",
			classifier.ErrDimensionMismatch, len(values), len(artifacts.FeatureNames))
	}

	scored := values
	if artifacts.Scaler != nil {
		scored = artifacts.Scaler.Transform(values)
	}

	// Probability-capable models produce a graded score; hard-prediction
	// models degrade to 0 or 100.
	var probability float64
	if scorer, ok := artifacts.Model.(classifier.ProbabilityScorer); ok {
		probability = scorer.ProbabilityOfPositive(scored)
	} else {
		probability = float64(artifacts.Model.Predict(scored))
	}

	label := model.LabelLegitimate
	if probability >= 0.5 {
		label = model.LabelPhishing
	}
	risk := math.Round(probability*100*10) / 10

	return label, risk, rankContributions(values, artifacts), nil
}

// rankContributions builds the explanation: for each feature, global
// importance times (|value| + epsilon), descending, ties broken by name so
// the ranking is deterministic. Only strictly positive contributions make
// the list, capped at ten entries.
//
// This is a proxy, not a per-sample attribution: a feature's global weight
// is scaled by how strongly it fires here, which approximates but does not
// equal its true marginal effect.
func rankContributions(values []float64, artifacts *classifier.Artifacts) []model.Contribution {
	provider, ok := artifacts.Model.(classifier.ImportanceProvider)
	if !ok {
		return nil
	}
	importances := provider.FeatureImportances()
	if len(importances) != len(values) {
		return nil
	}

	ranked := make([]model.Contribution, 0, len(values))
	for i, imp := range importances {
		c := imp * (math.Abs(values[i]) + contributionEpsilon)
		if c <= 0 {
			continue
		}
		ranked = append(ranked, model.Contribution{
			Name:         artifacts.FeatureNames[i],
			Contribution: round4(c),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Contribution != ranked[j].Contribution {
			return ranked[i].Contribution > ranked[j].Contribution
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > topContributions {
		ranked = ranked[:topContributions]
	}
	return ranked
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
