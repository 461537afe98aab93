package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/greenside/golfscout/internal/export"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export collected facilities",
	Long:  "Writes every collected facility to a timestamped CSV or XLSX file in the configured export directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format := export.Format(exportFormat)
		if format != export.FormatCSV && format != export.FormatXLSX {
			return eris.Errorf("unsupported format %q (want csv or xlsx)", exportFormat)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		path, err := export.New(st, cfg.Export.Dir).Export(ctx, format)
		if err != nil {
			return err
		}

		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv or xlsx)")
	rootCmd.AddCommand(exportCmd)
}
