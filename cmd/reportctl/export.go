package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"retail-dashboard/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		filters filterFlags
		out     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered transactions to an xlsx report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			page, f, err := filters.page(cmd, a)
			if err != nil {
				return err
			}

			opts := export.Options{
				Variant:    export.VariantGlobal,
				Start:      f.Start,
				End:        f.End,
				Now:        time.Now(),
				Location:   a.cfg.Display.Location(),
				ClockShift: a.cfg.Display.ClockShift(),
			}
			if filters.shop != "" {
				opts.Variant = export.VariantShop
			}
			if page.Shop != nil {
				opts.ShopName = page.Shop.Name
			}

			report, err := export.Build(page.Transactions, opts)
			if err != nil {
				return err
			}
			dir := out
			if dir == "" {
				dir = a.cfg.Display.ExportDir
			}
			path, err := report.Save(dir)
			if err != nil {
				return err
			}

			a.logger.Info("report written", "path", path, "records", len(page.Transactions), "groups", len(report.Groups))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (defaults to display.export_dir)")
	return cmd
}
