// dbcheck is an ad hoc inspector for poking the marketplace tables from a
// terminal during development. It also counts the legacy Spanish-named
// tables (ordenes/ventas/transacciones) left over from the unfinished
// schema migration, so we can watch them drain.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("DSN"), "Postgres connection string")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("no DSN: pass -dsn or set the DSN env var")
	}

	db, err := sqlx.Connect("pgx", *dsn)
	if err != nil {
		log.Fatal("cannot connect to database:", err)
	}
	defer db.Close()

	tables := []string{
		// Consolidated schema
		"profiles", "beats", "sound_kits", "services",
		"orders", "order_items", "sales",
		"comments", "playlists", "playlist_items", "payouts",
		// Legacy schema from the abandoned migration
		"ordenes", "items_orden", "ventas", "transacciones", "retiros",
	}

	for _, table := range tables {
		var count int
		err := db.Get(&count, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			fmt.Printf("%-16s missing (%v)\n", table, shortErr(err))
			continue
		}
		fmt.Printf("%-16s %d rows\n", table, count)
	}

	var pending int
	if err := db.Get(&pending, `SELECT COUNT(*) FROM orders WHERE status = 'pending'`); err == nil {
		fmt.Printf("\npending orders: %d\n", pending)
	}
}

func shortErr(err error) string {
	msg := err.Error()
	if len(msg) > 60 {
		return msg[:60] + "..."
	}
	return msg
}
