package cmd

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/s0up4200/gyazo/backup"
)

var (
	backupDir         string
	backupConcurrency int
	backupThumbs      bool
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Download every image into a local directory",
	Long: `Download every image of the account into a local directory.

Files already present are skipped and images deleted on the server are kept
in the local index, so the command can be run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupDir, "dir", "", "backup directory (default from backup.dir)")
	backupCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "only back up images matching this expression")
	backupCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	backupCmd.Flags().IntVar(&backupConcurrency, "concurrency", 0, "parallel downloads (default from backup.concurrency)")
	backupCmd.Flags().BoolVar(&backupThumbs, "thumbs", false, "also download thumbnails")
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := requireToken(); err != nil {
		return err
	}

	opts := backup.Options{
		Dir:         cfg.Backup.Dir,
		PerPage:     cfg.Backup.PerPage,
		Concurrency: cfg.Backup.Concurrency,
		Thumbs:      cfg.Backup.DownloadThumbs || backupThumbs,
	}
	if backupDir != "" {
		opts.Dir = backupDir
	}
	if cmd.Flags().Changed("concurrency") {
		if backupConcurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1")
		}
		opts.Concurrency = backupConcurrency
	}

	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	if f != nil {
		opts.Filter = f
	}

	logger.Info().
		Str("dir", opts.Dir).
		Int("concurrency", opts.Concurrency).
		Bool("thumbs", opts.Thumbs).
		Msg("Starting backup")

	result, err := backup.New(client, logger, opts).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nBackup of %d images in %s:\n", result.Total, opts.Dir)
	fmt.Fprintf(cmd.OutOrStdout(), "  Downloaded: %d (%s)\n", result.Downloaded, units.HumanSize(float64(result.Bytes)))
	fmt.Fprintf(cmd.OutOrStdout(), "  Skipped:    %d\n", result.Skipped)
	fmt.Fprintf(cmd.OutOrStdout(), "  Failed:     %d\n", result.Failed)

	if result.Failed > 0 {
		return fmt.Errorf("%d downloads failed", result.Failed)
	}
	return nil
}
