// Package server exposes the prediction pipeline over HTTP.
//
// The API surface is small: a predict endpoint in GET and POST form, a
// history listing, and a health probe. Failures in the scoring path come
// back as structured prediction results, never as 500s, so a monitoring
// integration can distinguish "the URL could not be scanned" from "the
// service is down".
package server
