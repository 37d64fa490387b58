// Package llm provides the chat completion client used to summarize
// filing chunks. It speaks the OpenRouter-compatible chat completions
// protocol and retries transient provider failures with capped backoff.
package llm
