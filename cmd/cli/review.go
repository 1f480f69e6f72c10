package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anonticket/anonticket/api"
)

func makeReviewCommand() *cobra.Command {
	var kind, note string
	var id uint
	var reject bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Approve or reject a pending submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := api.VerdictApproved
			if reject {
				verdict = api.VerdictRejected
			}
			return review(kind, id, verdict, note)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", api.KindIssue, "Record kind: issue, note or account-request")
	cmd.Flags().UintVar(&id, "id", 0, "Record id")
	cmd.Flags().BoolVar(&reject, "reject", false, "Reject instead of approving")
	cmd.Flags().StringVar(&note, "note", "", "Review note shown to the submitter")
	check(cmd.MarkFlagRequired("id"))

	return cmd
}

func review(kind string, id uint, verdict, note string) error {
	atl, err := makeClient()
	if err != nil {
		return err
	}

	if err := atl.Review(kind, id, verdict, note); err != nil {
		return err
	}

	fmt.Printf("%s %d: %s\n", kind, id, verdict)
	return nil
}
