// Package preflight provides readiness checks for the external services
// and filesystem paths that secsum depends on.
//
// The CLI "secsum check" command runs RunAll before a long pipeline run
// so a bad API key or unreachable vector store surfaces in seconds, not
// after an hour of downloading and summarizing.
//
// Directory and EDGAR identity checks are always performed; network
// checks use short timeouts and a single attempt.
package preflight
