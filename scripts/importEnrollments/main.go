package main

import (
	"context"
	"flag"
	"os"
	"sort"

	"garuda/config"
	"garuda/database"
	"garuda/services/enrollment"
	"garuda/utils/logger"
)

func main() {
	file := flag.String("file", "enrollments.csv", "CSV file with legacy registrations")
	reconcile := flag.Bool("reconcile", true, "resolve duplicate enrollments after the import")
	flag.Parse()

	// Load config and connect to database
	config.LoadConfig()
	logger.Init(config.AppConfig.LogLevel, config.AppConfig.LogFormat)
	database.ConnectDb()

	f, err := os.Open(*file)
	if err != nil {
		logger.Log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	db := database.Database.Db

	res, err := enrollment.Import(ctx, db, f)
	if err != nil {
		logger.Log.Fatalf("Import failed: %v", err)
	}

	lines := make([]int, 0, len(res.Skipped))
	for line := range res.Skipped {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	for _, line := range lines {
		logger.Log.Warnf("Skipped line %d: %s", line, res.Skipped[line])
	}

	logger.Log.Infof("=== Import Complete ===")
	logger.Log.Infof("Inserted: %d", res.Inserted)
	logger.Log.Infof("Users created: %d", res.UsersCreated)
	logger.Log.Infof("Skipped: %d", len(res.Skipped))

	if !*reconcile {
		return
	}
	plan, report, err := enrollment.NewReconciler(db).Run(ctx, enrollment.Filter{})
	if err != nil {
		logger.Log.Fatalf("Reconcile failed: %v", err)
	}
	logger.Log.Infof("Duplicate groups: %d, deleted: %d, failed: %d", len(plan.Groups), len(report.Deleted), len(report.Failed))
	if len(report.Failed) > 0 {
		os.Exit(1)
	}
}
