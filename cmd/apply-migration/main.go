package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"ehs-data/internal/config"
	"ehs-data/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <migration_file.sql>", os.Args[0])
	}

	migrationFile := os.Args[1]
	sqlContent, err := os.ReadFile(migrationFile)
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	cfg := config.Load()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s\n\n", cfg.Database.Database)

	// Split SQL by semicolon and execute each statement
	statements := strings.Split(string(sqlContent), ";")
	for i, stmt := range statements {
		stmt = stripSQLComments(stmt)
		if stmt == "" {
			continue
		}

		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Println("Migration completed successfully")
}

// stripSQLComments 去掉整行注释，返回压缩后的语句
func stripSQLComments(stmt string) string {
	var lines []string
	for _, line := range strings.Split(stmt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
