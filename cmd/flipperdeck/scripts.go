package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"flipperdeck/internal/domain/models"
	"flipperdeck/internal/service/catalog"
)

func newScriptsCmd(_ *globalOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "scripts [query]",
		Short: "Search the script catalog",
		Long:  `List catalog entries whose name or description contains the query, optionally limited to one category.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := models.ParseCategory(category)
			if err != nil {
				return fmt.Errorf("%w: %q", err, category)
			}

			entries := catalog.NewDefault().Render(strings.Join(args, " "), cat)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No scripts match.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tPATH\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Category, e.Path, e.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryAll), "category: all, badusb, subghz, nfc, infrared, rfid")
	return cmd
}
