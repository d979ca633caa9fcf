// Package config provides environment-based configuration.
//
// Loads a .env file when present (godotenv), maps environment variables to the
// Config struct, and validates required fields and value ranges.
package config
