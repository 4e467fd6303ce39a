// Command sbomimport bulk-loads a directory of SBOM JSON documents into the
// catalog, deriving metadata from each document the same way an API upload
// would.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbomdex/sbomdex/internal/config"
	"github.com/sbomdex/sbomdex/internal/domain/sbom"
	logpkg "github.com/sbomdex/sbomdex/internal/logger"
	catalogrepo "github.com/sbomdex/sbomdex/internal/repository/catalog"
	"github.com/sbomdex/sbomdex/internal/repository/filestore"
	"github.com/sbomdex/sbomdex/internal/version"
)

var (
	cfg    config.Config
	logger *zap.Logger

	flagReplace bool
)

func main() {
	rootCmd.PersistentFlags().BoolVar(&flagReplace, "replace", false,
		"overwrite documents already present in the catalog")

	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("sbomimport failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "sbomimport failed:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "sbomimport <dir>",
	Short:        "Bulk-import SBOM JSON documents into the sbomdex catalog",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		env := config.GetEnv()
		var err error
		cfg, err = config.Load(env)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err = logpkg.NewLogger(env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		return nil
	},
	RunE: doImport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print sbomimport version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sbomimport: %s (%s)\n", version.Version, version.Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func doImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	repo, err := catalogrepo.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open catalog database: %w", err)
	}
	defer func() { _ = repo.Close() }()

	files, err := filestore.New(cfg.Storage.SBOMDir)
	if err != nil {
		return fmt.Errorf("create sbom file store: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read import dir: %w", err)
	}

	imported, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := importOne(ctx, repo, files, dir, entry.Name()); err != nil {
			logger.Warn("Skipping document", zap.String("filename", entry.Name()), zap.Error(err))
			skipped++
			continue
		}
		imported++
	}

	logger.Info("Import finished",
		zap.String("dir", dir),
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
	)
	return nil
}

func importOne(ctx context.Context, repo *catalogrepo.Repo, files *filestore.Store, dir, filename string) error {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not a JSON document: %w", err)
	}

	if files.Exists(filename) {
		if !flagReplace {
			return fmt.Errorf("already stored (use --replace to overwrite)")
		}
		if err := files.Delete(filename); err != nil {
			return fmt.Errorf("replace stored file: %w", err)
		}
	}
	if err := files.Save(filename, data); err != nil {
		return fmt.Errorf("store file: %w", err)
	}

	md := sbom.ExtractMetadata(doc, filename)
	rec := catalogrepo.Record{
		Filename:        filename,
		AppName:         md.AppName,
		Category:        md.Category,
		OperatingSystem: md.OperatingSystem,
		AppBinaryType:   md.AppBinaryType,
		Supplier:        md.Supplier,
		Manufacturer:    md.Manufacturer,
		Version:         md.Version,
		TotalComponents: md.TotalComponents,
		UniqueLicenses:  md.UniqueLicenses,
	}
	if err := repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}

	logger.Info("Imported SBOM",
		zap.String("filename", filename),
		zap.String("app_name", rec.AppName),
		zap.Int("components", rec.TotalComponents),
	)
	return nil
}
