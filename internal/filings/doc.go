// Package filings holds the filing domain types shared across retrieval,
// preprocessing, and the pipeline: report modes, the on-disk archive
// layout, and references to downloaded documents.
package filings
