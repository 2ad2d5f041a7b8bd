// Neura reviews code changes with LLM providers and posts inline review
// comments to GitHub pull requests and GitLab merge requests.
//
// Each changed file is analyzed on its own. By default the model may call
// context tools (file content, code search, definition lookup) before it
// submits its findings; --no-agentic analyzes each hunk directly.
//
// Usage:
//
//	neura review --repo owner/name --pr 42          # review and post to GitHub
//	neura review --pr 42 --dry-run                  # preview without posting
//	neura gitlab --project group/app --mr 7         # review a GitLab merge request
//	neura local --staged                            # review staged changes
//	neura config set review.min_confidence 0.7      # change a setting
//	neura hook install                              # review before every push
package main
