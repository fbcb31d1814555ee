package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	actapp "github.com/actdesk/backend/internal/application/act"
	"github.com/actdesk/backend/internal/domain/layout"
	"github.com/actdesk/backend/internal/infrastructure/config"
	"github.com/actdesk/backend/internal/infrastructure/logger"
	"github.com/actdesk/backend/internal/infrastructure/persistence/filestore"
	"github.com/actdesk/backend/internal/infrastructure/printing"
)

var version = "dev"

// app holds the services shared by all subcommands
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	documents *actapp.DocumentService
	renders   *actapp.RenderService
}

func newApp(verbose bool) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.NewCLI(verbose)

	html, err := printing.NewHTMLRenderer(log)
	if err != nil {
		return nil, err
	}
	var layoutOpts []layout.Option
	if len(cfg.Rendering.FontCandidates) > 0 {
		layoutOpts = append(layoutOpts, layout.WithFontCandidates(cfg.Rendering.FontCandidates...))
	}

	return &app{
		cfg: cfg,
		log: log,
		documents: actapp.NewDocumentService(
			filestore.NewProjectStore(cfg.Documents.ProjectsDir, log),
			filestore.NewTemplateStore(cfg.Documents.TemplatesDir, log),
			filestore.NewDefaultsStore(cfg.Documents.DefaultsFile, log),
			log,
		),
		renders: actapp.NewRenderService(
			[]printing.Renderer{
				printing.NewPDFRenderer(
					printing.WithCompression(cfg.Rendering.Compress),
					printing.WithEncryptor(printing.NewPDFCPUEncryptor()),
					printing.WithPDFLogger(log),
				),
				printing.NewDOCXRenderer(printing.WithDOCXLogger(log)),
				html,
			},
			actapp.WithLayoutOptions(layoutOpts...),
			actapp.WithRenderLogger(log),
		),
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		a       *app
		verbose bool
	)
	current := func() *app { return a }

	root := &cobra.Command{
		Use:   "actctl",
		Short: "Compose and render acceptance-transfer acts",
		Long: `actctl works with act records (the JSON files the server and the desktop
editor exchange). It computes totals, renders PDF, DOCX and HTML documents,
and manages the template library and the defaults used for new acts.

Document locations and rendering options come from config.toml and the
ACT_* environment variables, the same as for the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				_ = logger.Sync(a.log)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newNewCmd(current),
		newTotalsCmd(current),
		newRenderCmd(current),
		newTemplateCmd(current),
		newDefaultsCmd(current),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
