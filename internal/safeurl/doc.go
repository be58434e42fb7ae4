// Package safeurl validates and normalizes URLs before any outbound
// network access is allowed.
//
// It is the single authority consulted by every component that issues an
// outbound request. A URL that this package has not cleared must never be
// fetched, which prevents the scanner from being abused as an SSRF proxy
// into private or internal networks.
//
// The guard enforces three classes of rules:
//   - Input rules: non-empty input, maximum length of 2048 characters.
//   - Scheme rules: only http and https are allowed. Missing schemes
//     default to https. file, ftp, data, javascript, vbscript and any
//     other scheme are rejected.
//   - Target rules: hostnames matching private, loopback, link-local, or
//     cloud-metadata ranges are rejected, both by hostname pattern
//     (e.g. "localhost", "127.*") and by CIDR membership for literal IPs.
package safeurl
