// Package auth issues and verifies JWT token pairs and hashes passwords.
//
// The presence core consumes this only through the ws.IdentityVerifier
// interface; everything else here serves the HTTP auth surface.
package auth
