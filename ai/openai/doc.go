// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs (OpenAI, Ollama, LocalAI, vLLM). Embeddings and answer
// generation may target different hosts and models.
package openai
