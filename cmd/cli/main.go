package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/anonticket/anonticket/pkg/client/anonticket"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

var (
	endpoint string

	rootCmd = &cobra.Command{
		Use:   "atl",
		Short: "Anonticket moderation client",
	}
)

func makeClient() (*anonticket.Client, error) {
	return anonticket.NewClient(endpoint, os.Getenv("ATL_MODERATION_TOKEN"))
}

func initCommands() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:18080", "Lobby endpoint")
	rootCmd.AddCommand(makePendingCommand())
	rootCmd.AddCommand(makeReviewCommand())
	rootCmd.AddCommand(makeHealthCommand())
}

func init() {
	initCommands()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %s", err.Error())
		os.Exit(1)
	}
}
