package main

import (
	"os"

	"github.com/folio/internal/config"
	"github.com/folio/internal/db"
	"github.com/folio/internal/logger"
)

// 演示数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	log := logger.New(cfg.Log, os.Stdout)

	// 初始化数据库
	if err := db.Init(cfg.DB.Path); err != nil {
		log.Fatal().Err(err).Msg("数据库初始化失败")
	}

	summary, err := seed(db.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("生成演示数据失败")
	}

	log.Info().
		Int("users", summary.Users).
		Int("pages", summary.Pages).
		Int("posts", summary.Posts).
		Msg("演示数据生成完成")
}
