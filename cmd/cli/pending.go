package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func makePendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List submissions waiting for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpPending()
		},
	}
}

func dumpPending() error {
	atl, err := makeClient()
	if err != nil {
		return err
	}

	pending, err := atl.LoadPending()
	if err != nil {
		return err
	}

	for _, issue := range pending.Issues {
		fmt.Printf("issue\t%d\t%s\t%s\t%s\n", issue.ID, issue.Project, issue.Identifier, issue.Title)
	}
	for _, note := range pending.Notes {
		fmt.Printf("note\t%d\t%s#%d\t%s\t%s\n", note.ID, note.Project, note.IssueIID, note.Identifier, note.Body)
	}
	for _, request := range pending.AccountRequests {
		fmt.Printf("account-request\t%d\t%s\t%s\n", request.ID, request.Identifier, request.Username)
	}

	return nil
}
