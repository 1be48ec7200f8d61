package main

import (
	"context"

	"github.com/arkapradana/arenahub/config"
	"github.com/arkapradana/arenahub/models"
	"github.com/arkapradana/arenahub/routes"
	"github.com/arkapradana/arenahub/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	// Captcha answers live in redis when it is configured
	utils.InitCaptchaStore()

	db := config.InitDatabase(
		&models.User{},
		&models.Room{},
		&models.Registration{},
		&models.PointEntry{},
		&models.RewardLog{},
		&models.PageView{},
	)

	r, rewardController := routes.SetupRouter(db)

	// Sweep finished ad-watch sessions in the background
	rewardController.StartJanitor(context.Background())

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
