/*****************************************************************************************************************/

package cmd

/*****************************************************************************************************************/

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodestar-space/startracker/internal/catalogbuilder"
	"github.com/lodestar-space/startracker/pkg/database"
)

/*****************************************************************************************************************/

var (
	BuildDatabaseOutPath    string
	BuildDatabaseConfigPath string
	BuildDatabaseStorePath  string
	BuildDatabaseConcurrent int
	BuildDatabaseQuiet      bool
)

/*****************************************************************************************************************/

var buildDatabaseCommand = &cobra.Command{
	Use:   "build-database <out_path> <config_path>",
	Short: "build-database fetches, caps, and freezes a GAIA-derived star catalog.",
	Long:  "build-database tiles the sky, fetches a magnitude- and density-limited star field from the GAIA DR3 archive, stages it in sqlite, and writes the frozen catalog, pair table, and K-vector index to out_path.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		params := RunBuildDatabaseParams{
			OutPath:       args[0],
			ConfigPath:    args[1],
			StorePath:     BuildDatabaseStorePath,
			Concurrency:   BuildDatabaseConcurrent,
			Quiet:         BuildDatabaseQuiet,
		}

		if err := RunBuildDatabase(params); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	},
}

/*****************************************************************************************************************/

func init() {
	buildDatabaseCommand.Flags().StringVarP(&BuildDatabaseStorePath, "store", "s", "catalog.db", "Path to the sqlite staging database")
	buildDatabaseCommand.Flags().IntVarP(&BuildDatabaseConcurrent, "concurrency", "c", 8, "Maximum concurrent GAIA region fetches")
	buildDatabaseCommand.Flags().BoolVarP(&BuildDatabaseQuiet, "quiet", "q", false, "Suppress progress output")
}

/*****************************************************************************************************************/

type RunBuildDatabaseParams struct {
	OutPath     string
	ConfigPath  string
	StorePath   string
	Concurrency int
	Quiet       bool
}

/*****************************************************************************************************************/

// RunBuildDatabase reads the config JSON named by params.ConfigPath,
// runs the full fetch/stage/cap/freeze pipeline, and writes the
// resulting database as indented JSON to params.OutPath.
func RunBuildDatabase(params RunBuildDatabaseParams) error {
	configFile, err := os.Open(params.ConfigPath)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer configFile.Close()

	var cfg catalogbuilder.Config
	if err := json.NewDecoder(configFile).Decode(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if cfg.FOVDeg <= 0 || cfg.AngleTolDeg <= 0 {
		return fmt.Errorf("config requires positive fov_deg and angle_tol_deg")
	}

	store, err := catalogbuilder.OpenStore(params.StorePath)
	if err != nil {
		return fmt.Errorf("open staging store: %w", err)
	}
	defer store.Close()

	client := catalogbuilder.NewGAIAClient()

	if !params.Quiet {
		fmt.Printf("Fetching GAIA sources for a %.1f degree field of view...\n", cfg.FOVDeg)
	}

	result, err := catalogbuilder.Build(cfg, client, store, params.Concurrency)
	if err != nil {
		return fmt.Errorf("build database: %w", err)
	}

	outFile, err := os.Create(params.OutPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer outFile.Close()

	if err := database.Save(outFile, result.Database); err != nil {
		return fmt.Errorf("write database: %w", err)
	}

	if !params.Quiet {
		fmt.Printf("Wrote %d catalog stars (staged %d) to %s, build %s\n", len(result.Database.Catalog), result.StarsStaged, params.OutPath, result.BuildID)
	}

	return nil
}

/*****************************************************************************************************************/
