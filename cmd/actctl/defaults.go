package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDefaultsCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Manage the defaults new acts start from",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save <record.json|->",
			Short: "Save an act as the defaults, without its items and attachments",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := readAct(cmd, args[0])
				if err != nil {
					return err
				}
				if err := current().documents.SaveDefaults(cmd.Context(), a); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved defaults to %s\n", current().cfg.Documents.DefaultsFile)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := current().documents.LoadDefaults(cmd.Context())
				if err != nil {
					return err
				}
				return writeAct(cmd, "", a)
			},
		},
	)
	return cmd
}
