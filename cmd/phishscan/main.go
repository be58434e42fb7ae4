// Package main provides the entry point for the phishscan CLI.
//
// phishscan classifies URLs as phishing or legitimate using lexical,
// domain-trust, and page-content features scored by a trained classifier.
//
// Usage:
//
//	phishscan scan <url>
//	phishscan scan --list <file>
//
// See --help for all available options.
package main

// main is the entry point for phishscan.
func main() {
	Execute()
}
