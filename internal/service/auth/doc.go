// Package auth provides the JWT token service and password hashing used by
// the authentication endpoints and middleware.
package auth
