package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geopost/internal/config"
	"github.com/sells-group/geopost/pkg/geocode"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available geocoding backends",
	RunE: func(cmd *cobra.Command, _ []string) error {
		formatBackends(cmd.OutOrStdout(), cfg.Geocode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func formatBackends(out io.Writer, gc config.GeocodeConfig) {
	selected, _ := geocode.ParseBackend(gc.Backend)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BACKEND\tSELECTED\tSTATUS")
	for _, b := range geocode.Backends() {
		mark := ""
		if b == selected {
			mark = "*"
		}
		status := "ready"
		if b == geocode.BackendMapQuest && gc.MapQuestKey == "" {
			status = "needs geocode.mapquest_key"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", b, mark, status)
	}
	_ = w.Flush()
}
