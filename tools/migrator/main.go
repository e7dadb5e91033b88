package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var dsn, migrationsPath, migrationsTable string
	var down bool

	flag.StringVar(&dsn, "dsn", "", "postgres connection string")
	flag.StringVar(&migrationsPath, "migrations-path", "./migrations", "path to migrations")
	flag.StringVar(&migrationsTable, "migrations-table", "schema_migrations", "name of migrations table")
	flag.BoolVar(&down, "down", false, "roll back every migration")
	flag.Parse()

	if dsn == "" {
		log.Fatal("dsn is required")
	}

	m, err := migrate.New(
		"file://"+migrationsPath,
		fmt.Sprintf("%s&x-migrations-table=%s", withQuery(dsn), migrationsTable),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("no migrations to apply")
			return
		}
		log.Fatal(err)
	}

	fmt.Println("migrations applied")
}

func withQuery(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?"
}
