package main

import (
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bigredeye/raport/internal/config"
	"github.com/bigredeye/raport/internal/database"
)

var log *zap.Logger

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func unwrap[T any](value T, err error) T {
	check(err)
	return value
}

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:          "raport",
		Short:        "Digital report card maintenance tool",
		SilenceUsage: true,
	}
)

func initLogging() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.EncoderConfig.ConsoleSeparator = " "
	logConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.StampMilli)
	log = unwrap(logConfig.Build())
}

func initCommands() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file")
	rootCmd.AddCommand(makeStandingsCommand())
	rootCmd.AddCommand(makeLookupCommand())
	rootCmd.AddCommand(makeImportCommand())
	rootCmd.AddCommand(makePhotosCommand())
}

func openDataBase() (*config.Config, *database.DataBase, error) {
	conf, err := config.ParseConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.OpenDataBase(log, conf)
	if err != nil {
		return nil, nil, err
	}
	return conf, db, nil
}

func init() {
	initLogging()
	initCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %s\n", err.Error())
		os.Exit(1)
	}
}
