// Package server exposes the HTTP surface: auth and room CRUD, health and
// metrics endpoints, and the websocket route. Request/response glue only; the
// presence core lives in session/broadcast/redis.
package server
