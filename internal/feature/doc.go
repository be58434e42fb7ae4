// Package feature extracts the numeric signals that describe a URL and
// assembles them into the fixed-order vector consumed by the classifier.
//
// Three extractors feed the vector:
//   - Lexical: pure string analysis of the URL itself. Total over all
//     inputs; malformed URLs yield a fully-populated default vector.
//   - Domain: WHOIS registration age, DNS existence, and hostname-shape
//     heuristics. Lookup failures degrade to "unknown", never to errors.
//   - Content: markup heuristics over HTML retrieved through the safe-fetch
//     guard, or supplied directly by the caller.
//
// The key set and key order of the assembled vector form the contract
// between training and inference: the classifier's positional inputs are
// bound to human-readable names by this order alone. The canonical order is
// derived once from a placeholder URL and any disagreement fails loudly
// with a FeatureOrderError rather than silently reordering.
package feature
