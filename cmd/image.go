package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/s0up4200/gyazo/gyazo"
)

var (
	uploadTitle        string
	uploadDesc         string
	uploadRefererURL   string
	uploadCollectionID string
	uploadCreatedAt    string
	noConfirm          bool
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <image-id>",
	Short: "Show a single image",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image file",
	Long: `Upload an image file. Use - to read the image from standard input.

--created-at accepts RFC 3339 or 2006-01-02T15:04:05-0700 timestamps.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <image-id>...",
	Short: "Delete one or more images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

// oembedCmd represents the oembed command
var oembedCmd = &cobra.Command{
	Use:   "oembed <url>",
	Short: "Show the oEmbed document of a public image page",
	Args:  cobra.ExactArgs(1),
	RunE:  runOEmbed,
}

func init() {
	rootCmd.AddCommand(getCmd, uploadCmd, deleteCmd, oembedCmd)

	getCmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")
	getCmd.Flags().BoolVar(&showOCR, "ocr", false, "show OCR text in table output")

	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "image title")
	uploadCmd.Flags().StringVar(&uploadDesc, "desc", "", "image description")
	uploadCmd.Flags().StringVar(&uploadRefererURL, "referer-url", "", "source page URL")
	uploadCmd.Flags().StringVar(&uploadCollectionID, "collection-id", "", "collection to add the image to")
	uploadCmd.Flags().StringVar(&uploadCreatedAt, "created-at", "", "capture time of the image")
	uploadCmd.Flags().StringP("output", "o", outputTable, "output format (table, json, yaml)")

	deleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")

	oembedCmd.Flags().StringP("output", "o", outputYAML, "output format (json, yaml)")
}

func runGet(cmd *cobra.Command, args []string) error {
	outputFmt, err := outputFlag(cmd)
	if err != nil {
		return err
	}
	if err := requireToken(); err != nil {
		return err
	}

	img, err := client.GetImage(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return writeImage(cmd.OutOrStdout(), outputFmt, *img, &ConsoleFormatter{ShowOCR: showOCR})
}

func runUpload(cmd *cobra.Command, args []string) error {
	outputFmt, err := outputFlag(cmd)
	if err != nil {
		return err
	}
	if err := requireToken(); err != nil {
		return err
	}

	opts := &gyazo.UploadOptions{
		RefererURL:   uploadRefererURL,
		Title:        uploadTitle,
		Desc:         uploadDesc,
		CollectionID: uploadCollectionID,
	}
	if uploadCreatedAt != "" {
		created, err := gyazo.ParseTime(uploadCreatedAt)
		if err != nil {
			return fmt.Errorf("invalid --created-at: %w", err)
		}
		opts.CreatedAt = &created
	}

	data, err := readUpload(cmd, args[0])
	if err != nil {
		return err
	}
	if args[0] != "-" {
		opts.Filename = filepath.Base(args[0])
	}

	if limit := cfg.Gyazo.MaxUploadBytes(); limit > 0 && int64(len(data)) > limit {
		return fmt.Errorf("%s is %s, larger than gyazo.max_upload_size %s",
			args[0], units.HumanSize(float64(len(data))), units.HumanSize(float64(limit)))
	}

	logger.Info().
		Str("file", args[0]).
		Str("size", units.HumanSize(float64(len(data)))).
		Msg("Uploading image")

	img, err := client.UploadImage(cmd.Context(), data, opts)
	if err != nil {
		return err
	}

	return writeImage(cmd.OutOrStdout(), outputFmt, *img, &ConsoleFormatter{})
}

func readUpload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireToken(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if cfg.Safety.ConfirmDelete && !noConfirm {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("refusing to delete without confirmation: stdin is not a terminal, use --no-confirm")
		}
		fmt.Fprintf(out, "Delete %d image(s): %s? [y/N]: ", len(args), strings.Join(args, ", "))
		if !confirm(cmd) {
			logger.Info().Msg("Deletion cancelled")
			return nil
		}
	}

	var failed int
	for _, id := range args {
		start := time.Now()
		img, err := client.DeleteImage(cmd.Context(), id)
		if err != nil {
			failed++
			logger.Error().Err(err).Str("image_id", id).Msg("Failed to delete image")
			continue
		}

		logger.Info().
			Str("image_id", img.ImageID).
			Dur("took", time.Since(start)).
			Msg("Deleted image")
		fmt.Fprintf(out, "✓ Deleted %s\n", id)
	}

	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d images", failed, len(args))
	}
	return nil
}

func confirm(cmd *cobra.Command) bool {
	response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func runOEmbed(cmd *cobra.Command, args []string) error {
	outputFmt, err := outputFlag(cmd)
	if err != nil {
		return err
	}

	doc, err := client.GetOEmbed(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return writeValue(cmd.OutOrStdout(), outputFmt, map[string]any(doc))
}
