package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/liorwd/calbot/internal/app"
	"github.com/liorwd/calbot/internal/config"
	"github.com/liorwd/calbot/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("CalBot version %s\n", version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := config.LoadEnvFiles(); err != nil {
		logger.Warn("Failed to load env files", zap.Error(err))
	}

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	application, err := app.New(cfg, st, logger, version)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}

	application.RunServer()
}

func printHelp() {
	fmt.Println("CalBot - WhatsApp calendar assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  calbot [flags]        Run the server")
	fmt.Println("  calbot version        Print version")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config string   Path to config file")
	fmt.Println("  -data string     Path to data directory")
}
