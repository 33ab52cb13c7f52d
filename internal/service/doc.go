// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// The service package implements the application layer in the clean architecture,
// containing use cases that coordinate the flow of data between external interfaces
// (API, background jobs) and the domain layer. It abstracts away infrastructure
// details while orchestrating domain entities to fulfill business requirements.
//
// Key components:
//
// 1. Use Case Implementations:
//   - Each service focuses on a specific domain area (document ingestion,
//     AI-backed analyses, notifications)
//   - Apply transactional boundaries when operations span multiple repositories
//
// 2. Dependency Management:
//   - Services receive dependencies through constructor injection
//   - Core dependencies include repositories, the generation substrate
//     (cache, rate limiter, idempotency guard), and cross-cutting concerns
//
// 3. Error Handling:
//   - Translate domain-specific errors to application-level errors
//   - Provide meaningful error context for API responses
//
// The service layer depends on domain entities and repository interfaces (from store),
// but never on specific infrastructure implementations, maintaining the Dependency
// Inversion Principle of clean architecture.
package service
