// Package agent runs the context-gathering review loop for a single file.
//
// The model is offered a fixed set of context tools and, from the second
// iteration on, create_review_analysis. Tool calls are dispatched through a
// Registry, their results are fed back into the conversation, and the loop
// ends when the model submits its analysis or the iteration budget runs out.
// Exhaustion is not an error: it yields a low-confidence outcome with no
// findings.
package agent
