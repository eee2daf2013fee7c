package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/store"
	"clipforge/pkg/config"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the voice synthesis cache",
	Long:  `Remove all cached voice artifacts and their index entries.`,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	count, err := st.PurgeVoiceCache(ctx)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(cfg.Speech.CacheDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), "voice_") {
				continue
			}
			_ = os.Remove(filepath.Join(cfg.Speech.CacheDir, entry.Name()))
		}
	}

	fmt.Printf("Cleared %d voice cache entr%s\n", count, pluralY(count))
	return nil
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
