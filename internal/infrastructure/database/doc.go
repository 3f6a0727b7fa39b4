// Package database provides SQLite connectivity for Lumen Hub Core.
//
// It owns the connection lifecycle and applies embedded schema
// migrations. Repositories (see internal/bridge) build on *DB.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT,
// and every .up.sql has a matching .down.sql.
package database
