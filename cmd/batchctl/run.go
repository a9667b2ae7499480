package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/phrazzld/scry-batch/internal/api"
	"github.com/phrazzld/scry-batch/internal/batch"
	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/phrazzld/scry-batch/internal/generation"
	"github.com/phrazzld/scry-batch/internal/pipeline"
	"github.com/phrazzld/scry-batch/internal/platform/logger"
	"github.com/spf13/cobra"
)

const maxCellWidth = 60

func newRunCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch from a YAML or JSON file",
		Long: "Run every item of a batch file through the generation pipeline and print the report.\n" +
			"Items run one at a time under the configured rate limits; a quota failure stops the batch\n" +
			"and the remaining items are reported as skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, d)
		},
	}

	cmd.Flags().StringP("file", "f", "", "Batch file (YAML or JSON)")
	cmd.Flags().String("kind", "", "Generation kind: summary, document_summary, translation")
	cmd.Flags().String("style", "", "Summary style: brief, detailed, bullets")
	cmd.Flags().String("target-language", "", "Target language for translations")
	cmd.Flags().Int("max-words", 0, "Word limit for generated text (0 for none)")
	cmd.Flags().StringP("output", "o", "table", "Output format: table, json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runBatch(cmd *cobra.Command, d deps) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown output format %q", format)
	}

	path, _ := cmd.Flags().GetString("file")
	in, err := readInput(path)
	if err != nil {
		return err
	}

	opts, err := optionsFromFlags(cmd, in.Options)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(configFile, "llm", "pipeline")
	if err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	lg, err := logger.New(level, d.stderr)
	if err != nil {
		return err
	}

	// Validate before building the client so bad input costs no API setup.
	items := in.workItems()
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := batch.ValidateItems(items, cfg.Pipeline.MaxItemsPerBatch); err != nil {
		return err
	}

	ctx := cmd.Context()
	gen, err := d.newGenerator(ctx, lg, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM generator: %w", err)
	}

	processor := pipeline.New(cfg.Pipeline, d.clock, lg)
	opts = opts.WithDefaults()
	report, err := processor.Process(ctx, uuid.New(), items, func(ctx context.Context, item batch.WorkItem) (string, error) {
		return gen.Generate(ctx, item.Content, opts)
	}, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewBatchResponse(report))
	}
	fmt.Fprintln(out, renderTable(report))
	return nil
}

// optionsFromFlags overlays explicitly set flags on the file's options.
func optionsFromFlags(cmd *cobra.Command, base generation.Options) (generation.Options, error) {
	opts := base
	flags := cmd.Flags()

	if flags.Changed("kind") {
		v, _ := flags.GetString("kind")
		opts.Kind = generation.Kind(v)
	}
	if flags.Changed("style") {
		v, _ := flags.GetString("style")
		opts.Style = generation.Style(v)
	}
	if flags.Changed("target-language") {
		v, _ := flags.GetString("target-language")
		opts.TargetLanguage = v
	}
	if flags.Changed("max-words") {
		v, err := flags.GetInt("max-words")
		if err != nil {
			return opts, err
		}
		opts.MaxWords = v
	}
	return opts, nil
}

func renderTable(report *batch.Report) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Item", "Title", "Status", "Result"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: maxCellWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, o := range report.Outcomes {
		detail := o.Error
		if o.Succeeded() {
			detail = o.Result
		}
		t.AppendRow(table.Row{i + 1, o.ItemID, o.ItemTitle, string(o.Status), oneLine(detail)})
	}

	t.AppendFooter(table.Row{
		"",
		"",
		string(report.Status),
		fmt.Sprintf("%d/%d ok", report.Succeeded, report.TotalItems),
		report.Elapsed.Round(time.Millisecond).String(),
	})
	return t.Render()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
