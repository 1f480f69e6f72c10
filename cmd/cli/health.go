package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func makeHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show poster and queue counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpHealth()
		},
	}
}

func dumpHealth() error {
	atl, err := makeClient()
	if err != nil {
		return err
	}

	health, err := atl.Health()
	if err != nil {
		return err
	}

	fmt.Printf("posted submissions:\t%d\n", health.PostedSubmissions)
	fmt.Printf("failed submissions:\t%d\n", health.FailedSubmissions)
	fmt.Printf("pending issues:\t%d\n", health.PendingIssues)
	fmt.Printf("pending notes:\t%d\n", health.PendingNotes)
	fmt.Printf("pending account requests:\t%d\n", health.PendingRequests)

	return nil
}
