package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"
)

var buildClean bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Pre-render the listing, post pages, feed and sitemap into the page store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := newApp(siteCfg)
		defer app.Close()

		if buildClean {
			if err := app.Init(); err != nil {
				return err
			}
			if err := app.Cache.InvalidateAll(); err != nil {
				return err
			}
		}
		report, err := app.Build(cmd.Context())
		if err != nil {
			return err
		}
		log.Printf("Built %d pages in %s", len(report.Paths), report.Duration.Round(time.Millisecond))
		if len(report.Pruned) > 0 {
			log.Printf("Removed %d stale pages", len(report.Pruned))
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "drop every stored page before building")
}
