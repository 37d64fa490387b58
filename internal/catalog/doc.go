// Package catalog maintains a sqlite index over the downloaded filing
// archive: which filings exist locally, where they live, and when they
// were fetched. It indexes the archive only; pipeline results live in the
// output artifacts.
package catalog
