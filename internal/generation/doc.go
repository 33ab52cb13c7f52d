// Package generation provides the interface and error taxonomy for the
// platform's generative text service. It abstracts the details of LLM API
// integration (Gemini), allowing pipeline stages and analysis features to
// request text or JSON-shaped output without coupling to a specific external
// service.
package generation
