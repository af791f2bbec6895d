// cleanup prunes old webhook delivery records and audit events. Run it from
// cron; retention defaults to 90 days and can be overridden with -days.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
)

func main() {
	days := flag.Int("days", 90, "retention window in days")
	flag.Parse()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	conn, err := pgx.Connect(context.Background(), url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	interval := fmt.Sprintf("%d days", *days)

	tag, err := conn.Exec(context.Background(),
		`DELETE FROM webhook_deliveries WHERE created_at < NOW() - $1::interval`, interval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prune webhook deliveries: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d webhook deliveries older than %s.\n", tag.RowsAffected(), interval)

	tag, err = conn.Exec(context.Background(),
		`DELETE FROM audit_events WHERE created_at < NOW() - $1::interval`, interval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prune audit events: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d audit events older than %s.\n", tag.RowsAffected(), interval)
}
