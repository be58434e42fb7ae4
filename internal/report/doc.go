// Package report renders prediction results in multiple output formats.
//
// Three writers are provided: SimpleWriter for terminal display, JSONWriter
// for tool integration, and MarkdownWriter for documentation and sharing.
// MultiWriter fans one result out to several destinations at once.
package report
