// Package redact removes secrets from text before it is sent to any LLM
// provider.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS credentials, bearer tokens, database URLs with
// inline credentials, and provider tokens (Anthropic, OpenAI, Google,
// GitHub, GitLab, Slack).
//
// Files whose paths match configured doublestar globs are replaced with
// [REDACTED] rather than scanned line by line. Context tool results are
// walked recursively so snippets and file bodies get the same treatment.
package redact
