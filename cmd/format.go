package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/s0up4200/gyazo/gyazo"
)

// Output formats accepted by --output
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// outputFlag returns the validated --output value of cmd
func outputFlag(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	switch format {
	case outputTable, outputJSON, outputYAML:
		return format, nil
	}
	return "", fmt.Errorf("invalid output format: %s (must be table, json or yaml)", format)
}

// ConsoleFormatter renders images as a tree for terminal output
type ConsoleFormatter struct {
	// ShowOCR adds the OCR description below each image
	ShowOCR bool
}

// FormatImageList formats a page of images
func (f *ConsoleFormatter) FormatImageList(images *gyazo.ImageCollection) string {
	if images.Len() == 0 {
		return "No images found\n"
	}

	var sb strings.Builder

	sb.WriteString("\nImage")
	if images.Len() != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d", images.Len())
	if images.TotalCount != nil {
		fmt.Fprintf(&sb, " of %d", *images.TotalCount)
	}
	sb.WriteString(")")
	if pages, ok := images.NumPages(); ok && images.CurrentPage != nil {
		fmt.Fprintf(&sb, ", page %d/%d", *images.CurrentPage, pages)
	}
	sb.WriteString(":\n\n")

	for i, img := range images.Images {
		f.formatImage(&sb, img, i == len(images.Images)-1)
	}

	if next, ok := images.HasNextPage(); ok && next {
		fmt.Fprintf(&sb, "\nMore images on page %d\n", *images.CurrentPage+1)
	}

	return sb.String()
}

// FormatImage formats a single image
func (f *ConsoleFormatter) FormatImage(img gyazo.Image) string {
	var sb strings.Builder
	f.formatImage(&sb, img, true)
	return sb.String()
}

func (f *ConsoleFormatter) formatImage(sb *strings.Builder, img gyazo.Image, isLast bool) {
	prefix, indent := "├", "│   "
	if isLast {
		prefix, indent = "╰", "    "
	}

	id := img.ImageID
	if id == "" {
		id = "(no id)"
	}
	fmt.Fprintf(sb, "%s── %s", prefix, id)
	if img.Type != "" {
		fmt.Fprintf(sb, " [%s]", img.Type)
	}
	sb.WriteString("\n")

	if created, ok := img.LocalCreatedAt(); ok {
		fmt.Fprintf(sb, "%sCreated: %s\n", indent, created.Format("2006-01-02 15:04"))
	}
	if img.PermalinkURL != "" {
		fmt.Fprintf(sb, "%sPage:    %s\n", indent, img.PermalinkURL)
	}
	if img.URL != "" {
		fmt.Fprintf(sb, "%sURL:     %s\n", indent, img.URL)
	}
	if f.ShowOCR {
		if desc := strings.TrimSpace(img.OCR["description"]); desc != "" {
			fmt.Fprintf(sb, "%sOCR:     %s\n", indent, strings.ReplaceAll(desc, "\n", " "))
		}
	}
}

// writeImages writes a collection in the requested format
func writeImages(w io.Writer, format string, images *gyazo.ImageCollection, f *ConsoleFormatter) error {
	switch format {
	case outputJSON:
		data, err := images.JSON("  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		return writeYAML(w, images.ToList())
	default:
		_, err := io.WriteString(w, f.FormatImageList(images))
		return err
	}
}

// writeImage writes a single image in the requested format
func writeImage(w io.Writer, format string, img gyazo.Image, f *ConsoleFormatter) error {
	switch format {
	case outputJSON:
		data, err := img.JSON("  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		return writeYAML(w, img.ToMap())
	default:
		_, err := io.WriteString(w, f.FormatImage(img))
		return err
	}
}

// writeValue writes arbitrary data as JSON or YAML; table falls back to YAML
func writeValue(w io.Writer, format string, v any) error {
	if format == outputJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	return writeYAML(w, v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
