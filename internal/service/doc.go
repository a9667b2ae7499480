// Package service contains the application-specific use cases. It
// orchestrates the batch pipeline, the generation provider and the
// repositories defined in internal/store to fulfill API requests.
//
// Services receive dependencies through constructor injection and depend on
// interfaces (store.BatchStore, generation.Generator), never on specific
// infrastructure implementations.
package service
