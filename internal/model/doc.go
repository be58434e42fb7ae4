// Package model defines the data structures shared across the phishscan
// application: prediction results, per-feature contributions, dataset rows,
// and risk levels.
//
// These types are intentionally free of behavior beyond formatting and
// construction so that every layer (extraction, scoring, reporting,
// serving, persistence) can depend on them without import cycles.
package model
