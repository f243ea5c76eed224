// Package store defines the persistence interfaces, shared error taxonomy,
// and transaction helpers used by the rest of the application. Concrete
// implementations live in internal/platform/postgres.
package store
