// Package edgar retrieves SEC filings: ticker resolution, submissions
// listing, and rate-limited downloads into the local archive layout.
package edgar
