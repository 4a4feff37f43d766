package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"MarketWatch/internal/di"
	"MarketWatch/internal/domain/models"
	"MarketWatch/internal/usecase"
	"MarketWatch/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	CmdRun     = "run"
	CmdPlan    = "plan"
	CmdVersion = "version"

	FlagConfig   = "config"
	FlagOut      = "out"
	FlagEnd      = "end"
	FlagMonths   = "months"
	FlagKeywords = "keywords"
	FlagCapacity = "capacity"
	FlagAnchor   = "anchor"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "marketwatch",
		Short: "Harmonize macro indicators and search interest into one monthly panel",
		Long: `marketwatch fetches economic indicator levels (FRED) and relative search
interest (Google Trends), reconciles the batched search indices on a shared
anchor keyword, aligns everything on month-end dates and exports CSV, XLSX,
a two-axis PNG chart and a zip bundle.

  marketwatch run --config configs/marketwatch.yaml
  marketwatch plan --keywords a,b,c,d,e,f --capacity 5`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, FlagConfig, "c", "configs/marketwatch.yaml",
		"Configuration file path (built-in defaults when missing)")

	root.AddCommand(newRunCmd(&configPath), newPlanCmd(), newVersionCmd())
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		outDir string
		end    string
		months int
	)
	cmd := &cobra.Command{
		Use:   CmdRun,
		Short: "Run the pipeline once and write the artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if end != "" {
				cfg.Run.EndDate = end
			}
			if months > 0 {
				cfg.Run.MonthsBack = months
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			sum, err := a.Run()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if sum.Result.NoData() {
				fmt.Fprintln(out, "no data: placeholder artifacts written")
			}
			for _, p := range sum.Artifacts {
				fmt.Fprintln(out, p)
			}
			if sum.Bundle != "" {
				fmt.Fprintln(out, sum.Bundle)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, FlagOut, "o", "", "Output directory (overrides output.dir)")
	cmd.Flags().StringVar(&end, FlagEnd, "", "Last day of the window, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&months, FlagMonths, 0, "Lookback window in months (overrides run.months_back)")
	return cmd
}

func newPlanCmd() *cobra.Command {
	var (
		keywords []string
		capacity int
		anchor   string
	)
	cmd := &cobra.Command{
		Use:   CmdPlan,
		Short: "Print the batch plan for a keyword set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			planner := usecase.NewBatchPlanner(capacity)
			batches, err := planner.Plan(keywords, anchor)
			if err != nil {
				return err
			}
			if err := usecase.ValidatePlan(keywords, batches, planner.Capacity()); err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), batches)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&keywords, FlagKeywords, "k", nil, "Comma separated keywords")
	cmd.Flags().IntVar(&capacity, FlagCapacity, usecase.DefaultBatchCapacity, "Maximum keys per request")
	cmd.Flags().StringVar(&anchor, FlagAnchor, "", "Anchor keyword (default the first keyword)")
	_ = cmd.MarkFlagRequired(FlagKeywords)
	return cmd
}

func printPlan(w io.Writer, batches []*models.Batch) {
	for _, b := range batches {
		line := fmt.Sprintf("batch %d: %s", b.Number, strings.Join(b.Keys, ", "))
		if b.Anchor != "" {
			line += fmt.Sprintf(" (anchor %s)", b.Anchor)
		}
		fmt.Fprintln(w, line)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   CmdVersion,
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "marketwatch", version)
		},
	}
}
