package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/gyazo/filter"
	"github.com/s0up4200/gyazo/gyazo"
)

var (
	listPage    int
	listPerPage int
	listAll     bool
	filterExpr  string
	preset      string
	showOCR     bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List images in the account",
	Long: `List one page of images, or every page with --all.

Images can be narrowed with a filter expression or a preset from the config:

  gyazo list --filter 'Type == "png" and CreatedAt > daysAgo(7)'
  gyazo list --all --preset screenshots`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVar(&listPage, "page", 1, "page to fetch")
	listCmd.Flags().IntVar(&listPerPage, "per-page", gyazo.DefaultPerPage, "images per page (max 100)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch every page")
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	listCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	listCmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&showOCR, "ocr", false, "show OCR text in table output")
}

func runList(cmd *cobra.Command, args []string) error {
	outputFmt, err := outputFlag(cmd)
	if err != nil {
		return err
	}
	if err := requireToken(); err != nil {
		return err
	}

	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	ctx := cmd.Context()

	var images *gyazo.ImageCollection
	if listAll {
		images, err = client.ListAllImages(ctx, listPerPage)
	} else {
		images, err = client.ListImages(ctx, listPage, listPerPage)
	}
	if err != nil {
		return err
	}

	if f != nil {
		logger.Debug().Str("filter", f.Expression()).Int("images", images.Len()).Msg("Applying filter")
		images = filter.Apply(f, images)
	}

	return writeImages(cmd.OutOrStdout(), outputFmt, images, &ConsoleFormatter{ShowOCR: showOCR})
}
