// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs through langchaingo. It works with hosted OpenAI as well as
// local servers (Ollama, LocalAI, vLLM) that speak the same protocol.
package openai
