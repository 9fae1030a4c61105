package main

import (
	"flag"
	"os"

	"github.com/folio/internal/config"
	"github.com/folio/internal/db"
	"github.com/folio/internal/logger"
)

// 创建初始账号，已存在同名用户时不做任何修改
func main() {
	username := flag.String("username", os.Getenv("FOLIO_INIT_USERNAME"), "username of the account to create")
	email := flag.String("email", os.Getenv("FOLIO_INIT_EMAIL"), "email address of the account")
	password := flag.String("password", os.Getenv("FOLIO_INIT_PASSWORD"), "password of the account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	log := logger.New(cfg.Log, os.Stdout)

	// 初始化数据库
	if err := db.Init(cfg.DB.Path); err != nil {
		log.Fatal().Err(err).Msg("数据库初始化失败")
	}

	if *username == "" || *password == "" {
		log.Fatal().Msg("username and password are required")
	}

	created, err := db.EnsureUser(db.DB, *username, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("创建用户失败")
	}
	if !created {
		log.Info().Str("username", *username).Msg("用户已存在，无需初始化")
		return
	}
	log.Info().Str("username", *username).Msg("用户创建成功")
}
