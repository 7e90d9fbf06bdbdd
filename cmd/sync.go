package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/salgsmotor/internal/crmsync"
	"github.com/sells-group/salgsmotor/internal/report"
)

var (
	syncUpdateMissingOrgNr bool
	syncDryRun             bool
	syncWriteFields        bool
	syncConcurrency        int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Enrich every company in LACRM and file recommendations",
	Long:  "Lists all company contacts in Less Annoying CRM, enriches each by its organization number and creates pipeline items for the recommendations. With --write-fields the company card fields are updated too.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "sync")
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := syncConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		syncer := crmsync.New(
			newCRMClient(),
			env.Pipeline,
			env.Registry,
			env.Pipeline,
			crmsync.NewAICommenter(env.LLM, cfg.Anthropic.Model),
			cfg.LACRM,
		)
		rep, err := syncer.Run(ctx, crmsync.Options{
			UpdateMissingOrgNr: syncUpdateMissingOrgNr,
			DryRun:             syncDryRun,
			WriteFields:        syncWriteFields,
			Concurrency:        concurrency,
		})
		if err != nil {
			return err
		}
		return report.Encode(cmd.OutOrStdout(), rep.Counts(), report.FormatJSON)
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Print the LACRM custom field IDs to put in config",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fields"); err != nil {
			return err
		}
		return crmsync.FieldsGuide(cmd.Context(), newCRMClient(), cmd.OutOrStdout())
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncUpdateMissingOrgNr, "update-missing-orgnr", false, "look up missing orgnrs by company name and write them back")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "log CRM writes instead of performing them")
	syncCmd.Flags().BoolVar(&syncWriteFields, "write-fields", false, "update company card fields")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "contacts processed in parallel (default from config)")
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(fieldsCmd)
}
