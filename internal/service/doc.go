// Package service contains the application's business logic, coordinating
// domain objects, stores, and event emission. Handlers call services;
// services call stores.
package service
