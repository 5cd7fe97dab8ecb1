/*****************************************************************************************************************/

// Package cmd wires the startracker command-line tool: a bare cobra
// root command that adds the solve, build-database, and visualize
// subcommands, each defined in its own file with a package-level flag
// var block bound in init() and a Run*(params) function kept separate
// from the cobra.Command's own closure.
package cmd

/*****************************************************************************************************************/

import (
	"github.com/spf13/cobra"
)

/*****************************************************************************************************************/

var rootCommand = &cobra.Command{
	Use:   "startracker",
	Short: "startracker is a command-line tool for star-tracker attitude determination.",
	Long:  "startracker extracts star centroids from an image, identifies them against a frozen catalog database by the Pyramid method, and solves for the camera's attitude quaternion by QUEST.",
}

/*****************************************************************************************************************/

func init() {
	rootCommand.AddCommand(solveCommand)
	rootCommand.AddCommand(buildDatabaseCommand)
	rootCommand.AddCommand(visualizeCommand)
}

/*****************************************************************************************************************/

// Execute runs the root command, panicking on error the way the
// teacher's own Execute does.
func Execute() {
	if err := rootCommand.Execute(); err != nil {
		panic(err)
	}
}

/*****************************************************************************************************************/
