// Package database implements PostgreSQL-backed repositories.
//
// Holds the user and room records behind the HTTP CRUD surface. The presence
// core never touches this package; membership truth lives in Redis.
package database
