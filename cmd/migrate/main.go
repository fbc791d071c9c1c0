package main

import (
	"flag"
	"log"

	"passenger-client/config"
	"passenger-client/migration"
)

func main() {
	configPath := flag.String("config", ".", "config.yaml file or directory")
	source := flag.String("source", migration.DefaultSource, "migration source URL")
	attempts := flag.Int("attempts", 10, "connection attempts before giving up")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if err := migration.RunMigrations(cfg.DB.DSN(), *source, *attempts); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
}
