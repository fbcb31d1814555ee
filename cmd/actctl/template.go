package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTemplateCmd(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage the template library",
		Long: `Templates keep the parties, styling and contract fields of an act. The
act number, dates, items, attachments and PDF passwords are never saved.
A template may carry a password; it must be given again to load it.`,
	}
	cmd.AddCommand(
		newTemplateSaveCmd(current),
		newTemplateLoadCmd(current),
		newTemplateListCmd(current),
		newTemplateDeleteCmd(current),
	)
	return cmd
}

func newTemplateSaveCmd(current func() *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:     "save <name> <record.json|->",
		Short:   "Save an act as a template",
		Example: `  actctl template save "SIA Piemērs" akts.json --password slepens`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readAct(cmd, args[1])
			if err != nil {
				return err
			}
			if err := current().documents.SaveTemplate(cmd.Context(), args[0], password, a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "saved template %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password required to load the template")
	return cmd
}

func newTemplateLoadCmd(current func() *app) *cobra.Command {
	var (
		password string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Print the act record of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := current().documents.LoadTemplate(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			return writeAct(cmd, output, a)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Template password")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newTemplateListCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := current().documents.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPROTECTED\tMODIFIED")
			for _, t := range templates {
				protected := "no"
				if t.Protected {
					protected = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, protected, t.ModifiedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newTemplateDeleteCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current().documents.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "deleted template %q\n", args[0])
			return nil
		},
	}
}
