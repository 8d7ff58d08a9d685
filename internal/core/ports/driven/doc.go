// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): extraction, OCR, embeddings, the vector
// index, persistent storage, and the LLM.
package driven
