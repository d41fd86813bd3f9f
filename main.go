package main

import (
	"os"
	"os/signal"
	"syscall"

	"garuda/config"
	"garuda/database"
	"garuda/routers"
	"garuda/scheduler"
	"garuda/utils"
	"garuda/utils/logger"

	"github.com/robfig/cron/v3"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	database.ConnectDb()

	utils.DefaultMailer = utils.NewMailer(cfg)
	utils.DefaultWhatsApp = utils.NewWhatsApp(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIToken)

	var jobs *cron.Cron
	if cfg.SchedulerEnabled {
		var err error
		jobs, err = scheduler.Start(cfg, database.Database.Db, utils.DefaultMailer)
		if err != nil {
			logger.Log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	app := routers.NewApp(cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Log.Info("Shutting down...")
		if jobs != nil {
			<-jobs.Stop().Done()
		}
		if err := app.Shutdown(); err != nil {
			logger.Log.Errorf("Shutdown failed: %v", err)
		}
	}()

	logger.Log.Infof("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal(err)
	}
}
