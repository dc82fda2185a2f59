// Package manager creates the target PostgreSQL database for `mnxnorm init`.
//
// Database names are quoted with pgx.Identifier.Sanitize, so names with
// spaces or quotes are safe. CREATE DATABASE cannot run inside a
// transaction, which is why Create acquires a dedicated connection.
//
//	mgr := manager.New()
//	created, err := mgr.Ensure(ctx, conn, "metanetx")
package manager
