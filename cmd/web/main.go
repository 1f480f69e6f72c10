package main

import (
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	zlog "github.com/anonticket/anonticket/pkg/log"

	"github.com/anonticket/anonticket/internal/web"
)

func run() error {
	logger := zlog.InitProd(os.Getenv("ATL_LOG_PATH"))
	defer zlog.Sync()

	return web.Run(logger)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("%+v\n", err)
	}
}
