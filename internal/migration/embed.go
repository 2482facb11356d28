// Package migration applies the embedded schema at startup. The
// entitlement store depends on the entitlements unique key and the
// payment_events dedupe constraint being in place before traffic.
package migration

import "embed"

//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"
