// Package broadcast implements the group fan-out layer.
//
// A single actor goroutine owns the group → subscriber registry; all access
// goes through a command channel. Cross-instance delivery rides on a Relay
// (Redis Pub/Sub in production); without a relay the broadcaster degrades to
// in-process fan-out, which the tests use.
package broadcast
