package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/debtscan/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/debtscan/internal/core/domain"
)

var (
	historyLimit int
	pruneKeep    int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and manage index snapshots",
	Long: `Commands for building embedding index snapshots and managing the
versions kept in the index directory.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build [chunks.jsonl]",
	Short: "Embed chunks and publish a new snapshot",
	Long: `Embeds every chunk with the configured provider, builds a flat
Euclidean index and publishes it as the current snapshot.

The chunk file defaults to ` + DefaultChunksFile + `. Records may carry
their text under "text" or "content" and their provenance under "metadata"
or "meta".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndexBuild,
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshot versions",
	RunE:  runIndexList,
}

var indexHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent index builds",
	RunE:  runIndexHistory,
}

var indexPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old snapshot versions",
	Long:  `Removes all but the newest versions. The current version is never removed.`,
	RunE:  runIndexPrune,
}

func init() {
	indexHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of builds")
	indexPruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "versions to keep (default index.keep)")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexHistoryCmd)
	indexCmd.AddCommand(indexPruneCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	path := DefaultChunksFile
	if len(args) == 1 {
		path = args[0]
	}

	chunks, err := jsonl.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chunks: %w", err)
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		out := cmd.ErrOrStderr()
		indexService.SetProgress(func(done, total int) {
			fmt.Fprintf(out, "\rEmbeddings: %d/%d", done, total)
			if done == total {
				fmt.Fprintln(out)
			}
		})
		defer indexService.SetProgress(nil)
	}

	manifest, err := indexService.Build(commandContext(cmd), chunks, path)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Published snapshot %s\n", manifest.Version)
	printManifest(cmd, *manifest)
	return nil
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	if snapshotStore == nil {
		return errors.New("snapshot store not configured")
	}

	ctx := commandContext(cmd)
	versions, err := snapshotStore.Versions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}
	if len(versions) == 0 {
		cmd.Println("No snapshots found. Run 'debtscan index build' to create one.")
		return nil
	}

	current, _ := snapshotStore.Current(ctx) //nolint:errcheck // no current is shown as no marker

	cmd.Println("Snapshots:")
	for _, v := range versions {
		marker := " "
		if v == current {
			marker = "*"
		}
		m, err := snapshotStore.Manifest(ctx, v)
		if err != nil {
			cmd.Printf("  %s %s (manifest unreadable)\n", marker, v)
			continue
		}
		cmd.Printf("  %s %s  %s  %d chunks  %s\n",
			marker, v, m.CreatedAt.Format("2006-01-02 15:04"), m.ChunkCount, m.Model)
	}
	return nil
}

func runIndexHistory(cmd *cobra.Command, _ []string) error {
	if buildCatalog == nil {
		return errors.New("build catalog not configured")
	}

	builds, err := buildCatalog.List(commandContext(cmd), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}
	if len(builds) == 0 {
		cmd.Println("No builds recorded.")
		return nil
	}

	cmd.Println("Recent builds:")
	for i := range builds {
		b := builds[i]
		cmd.Printf("  %s  %s  %d chunks x %d  %s\n",
			b.CreatedAt.Format("2006-01-02 15:04"), b.Version, b.ChunkCount, b.Dimensions, b.Source)
	}
	return nil
}

func runIndexPrune(cmd *cobra.Command, _ []string) error {
	if snapshotStore == nil {
		return errors.New("snapshot store not configured")
	}

	keep := pruneKeep
	if keep == 0 && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			keep = settings.Index.Keep
		}
	}
	if keep == 0 {
		keep = domain.DefaultAppSettings().Index.Keep
	}

	removed, err := snapshotStore.Prune(commandContext(cmd), keep)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if len(removed) == 0 {
		cmd.Println("Nothing to prune.")
		return nil
	}
	for _, v := range removed {
		cmd.Printf("Removed %s\n", v)
	}
	return nil
}

func printManifest(cmd *cobra.Command, m domain.IndexManifest) {
	cmd.Printf("  Chunks:     %d\n", m.ChunkCount)
	cmd.Printf("  Dimensions: %d\n", m.Dimensions)
	if m.Model != "" {
		cmd.Printf("  Model:      %s\n", m.Model)
	}
	if m.Source != "" {
		cmd.Printf("  Source:     %s\n", m.Source)
	}
}
