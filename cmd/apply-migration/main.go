package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"salesrouter-data/internal/config"
	"salesrouter-data/internal/database"
	"salesrouter-data/internal/logger"

	"go.uber.org/zap"
)

// Applies one migration file, or every .sql file of a directory in name
// order. Connection settings come from the environment (see config.Load).
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <migration.sql | migrations-dir>", os.Args[0])
	}

	cfg := config.Load()
	zl, err := logger.New(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	files, err := migrationFiles(os.Args[1])
	if err != nil {
		zl.Fatal("cannot resolve migrations", zap.Error(err))
	}
	if len(files) == 0 {
		zl.Fatal("no .sql files found", zap.String("path", os.Args[1]))
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, &cfg.Database, zl)
	if err != nil {
		zl.Fatal("cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	for _, file := range files {
		sqlContent, err := os.ReadFile(file)
		if err != nil {
			zl.Fatal("failed to read migration file", zap.String("file", file), zap.Error(err))
		}
		zl.Info("applying migration", zap.String("file", filepath.Base(file)))

		statements := strings.Split(string(sqlContent), ";")
		for i, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || isCommentOnly(stmt) {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				zl.Fatal("failed to execute statement",
					zap.String("file", filepath.Base(file)),
					zap.Int("statement", i+1),
					zap.Error(err))
			}
		}
	}

	zl.Info("migrations applied", zap.Int("files", len(files)))
	fmt.Println("Migration completed successfully")
}

func migrationFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	files := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// isCommentOnly reports whether every line of the statement fragment is a
// line comment, which the naive semicolon split can produce.
func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
