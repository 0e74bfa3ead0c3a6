package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/bigredeye/raport/internal/config"
	"github.com/bigredeye/raport/internal/web"
	zlog "github.com/bigredeye/raport/pkg/log"
)

var configPath = flag.String("config", "", "Path to the config file")

func run() error {
	flag.Parse()

	conf, err := config.ParseConfig(*configPath)
	if err != nil {
		return err
	}

	logger := zlog.Init(zlog.Options{
		Production: conf.Log.Production,
		File:       conf.Log.File,
	})
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return web.Run(ctx, logger, conf)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
