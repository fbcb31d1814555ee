package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/domain/act"
	"github.com/actdesk/backend/internal/infrastructure/persistence/codec"
	"github.com/actdesk/backend/internal/infrastructure/printing"
)

// readAct loads an act record from path, or from stdin when path is "-"
func readAct(cmd *cobra.Command, path string) (*act.Act, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return codec.Unmarshal(data)
}

// writeAct writes a as a record to path, or to stdout when path is empty
func writeAct(cmd *cobra.Command, path string, a *act.Act) error {
	data, err := codec.Marshal(a)
	if err != nil {
		return err
	}
	return writeOutput(cmd, path, data)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newNewCmd(current func() *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Print a fresh act record seeded from the saved defaults",
		Example: `  actctl new > akts.json
  actctl new -o akts.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current().documents.NewAct(cmd.Context())
			return writeAct(cmd, output, a)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newTotalsCmd(current func() *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "totals <record.json|->",
		Short: "Compute subtotal, VAT and grand total of an act",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := readAct(cmd, args[0])
			if err != nil {
				return err
			}
			totals := current().renders.Totals(a)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(totals)
			}
			printTotals(out, totals)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print totals as JSON")
	return cmd
}

func printTotals(w io.Writer, t *actapp.TotalsResponse) {
	labels := act.DefaultLabels()
	fmt.Fprintf(w, "%s: %s %s\n", labels.Subtotal, t.Subtotal, t.Currency)
	if t.IncludeVAT {
		fmt.Fprintf(w, "%s: %s %s\n", fmt.Sprintf(labels.VATFormat, t.VATRate), t.VAT, t.Currency)
	}
	fmt.Fprintf(w, "%s: %s %s\n", labels.GrandTotal, t.Grand, t.Currency)
}

func newRenderCmd(current func() *app) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "render <record.json|->",
		Short: "Render an act as PDF, DOCX or HTML",
		Example: `  actctl render akts.json
  actctl render akts.json --format docx -o akts.docx
  actctl new | actctl render - --format html -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := printing.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unsupported format %q (use pdf, docx or html)", format)
			}
			a, err := readAct(cmd, args[0])
			if err != nil {
				return err
			}

			app := current()
			result, err := app.renders.Render(cmd.Context(), a, f)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				app.log.Warn("render warning", zap.String("warning", w))
			}

			if output == "" {
				output = defaultOutputName(a, f)
			}
			if err := writeOutput(cmd, output, result.Content); err != nil {
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(result.Content))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(printing.FormatPDF), "Output format: pdf, docx, html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default: <act number>.<format>)")
	return cmd
}

func defaultOutputName(a *act.Act, f printing.Format) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(a.Number))
	if name == "" {
		name = "akts"
	}
	return name + f.Extension()
}
