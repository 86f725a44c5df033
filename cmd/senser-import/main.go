package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"senser/common/logger"
	"senser/internal/client"
	"senser/internal/domain"
	"senser/internal/importer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:   "senser-import",
		Short: "Bulk sensor registration from xlsx sheets",
		Long: `Generates the sensor import template and registers every row of a filled-in
sheet through the senser HTTP API. Sensors whose name is already registered are
reported and skipped.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(templateCmd())
	rootCmd.AddCommand(loadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// templateCmd writes an empty import template
func templateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the xlsx import template",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := importer.GenerateTemplate()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "sensors.xlsx", "Output file")
	return cmd
}

// loadCmd registers every valid row of --file against --api
func loadCmd() *cobra.Command {
	var (
		file    string
		apiURL  string
		retries int
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Register the sensors listed in an xlsx sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.NewLogger(logLevel, "console", "senser-import")
			if err != nil {
				return err
			}
			defer log.Sync()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			records, rowErrs, err := importer.ParseSensors(f)
			if err != nil {
				return err
			}
			for _, re := range rowErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  skipped %v\n", re)
			}

			sensors := make([]domain.SensorCreate, 0, len(records))
			for _, rec := range records {
				sensors = append(sensors, rec.Sensor)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary := client.New(apiURL, retries, log).RegisterAll(ctx, sensors)
			for _, e := range summary.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  failed %v\n", e)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Rows: %d  Created: %d  Duplicates: %d  Failed: %d  Invalid: %d\n",
				len(records)+len(rowErrs), summary.Created, summary.Duplicates, summary.Failed, len(rowErrs))
			if summary.Failed > 0 {
				log.Warn("Import finished with failures", zap.Int("failed", summary.Failed))
				return fmt.Errorf("%d sensors failed to register", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "xlsx file to import")
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "senser API base URL")
	cmd.Flags().IntVar(&retries, "retries", 3, "Retries per request on transport errors")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
