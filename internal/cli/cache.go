package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/worldly/internal/manifest"
)

// CreateCacheCommand creates the "cache" command group
func CreateCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the audio cache",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List synthesized audio artifacts recorded in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCache(cmd, viper.GetString("output.audio_dir"), cmd.OutOrStdout())
		},
	}

	cacheCmd.AddCommand(listCmd)
	return cacheCmd
}

func listCache(cmd *cobra.Command, audioDir string, w io.Writer) error {
	path := filepath.Join(audioDir, manifest.FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(w, "No manifest found at %s (runs record artifacts with --manifest)\n", path)
		return nil
	}

	m, err := manifest.Open(path)
	if err != nil {
		return err
	}
	defer m.Close()

	entries, err := m.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "Manifest is empty")
		return nil
	}

	fmt.Fprintln(w, RenderManifest(entries))

	var total int64
	for _, e := range entries {
		total += int64(e.Size)
	}
	fmt.Fprintf(w, "%d artifacts, %s\n", len(entries), formatBytes(total))
	return nil
}

// RenderManifest renders entries as a table
func RenderManifest(entries []manifest.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Text", "File", "Provider", "Voice", "Size", "Created"})

	for _, e := range entries {
		tw.AppendRow(table.Row{
			e.Text,
			e.File,
			e.Provider,
			e.Voice,
			formatBytes(int64(e.Size)),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
