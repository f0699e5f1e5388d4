// Package parley holds the domain types and service interfaces for the
// Parley multi-tenant chat assistant platform. Implementations live in the
// subsystem packages (tenant, session, settings, chat) and are wired
// together by cmd/parleyd.
package parley
