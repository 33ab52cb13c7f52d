// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API as the platform's generative text
// service.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service without exposing the details of the external service to the core
// application. It handles request formatting, response concatenation, retry
// with exponential backoff for transient errors, and translation of API
// failures into the generation package's error taxonomy (including the
// distinct rate-limit class carrying a retry-after hint).
package gemini
