package commands

import (
	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/roost"
	"github.com/simonhull/firebird-suite/roost/internal/log"
	"github.com/simonhull/firebird-suite/roost/internal/output"
)

// RootCmd creates and returns the root command for the roost CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "roost",
		Short: "Generate immutable, lazily built config singletons for Go",
		Long: `Roost turns a small YAML spec into a Go config type.

From a type name, a global accessor name and an ordered list of
(name, type, default) fields, roost generates:
• a struct with one unexported member per field, in order
• a zero-argument constructor applying every default
• a global accessor that builds the value once and shares it
• read-only getters, copying slices and maps

Run it from go:generate or directly:
  //go:generate roost generate
  roost generate --type AppConfig --global Config --field 'port:int=8080'

Learn more: https://github.com/simonhull/firebird-suite`,
		Version:       roost.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
			log.Setup(log.Config{Verbose: verbose, Output: cmd.ErrOrStderr()})
			cmd.SetContext(log.IntoContext(cmd.Context(), log.Base()))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().String("config", "", "Path to roost.yml or the directory holding it (default: module root)")

	cmd.AddCommand(GenerateCmd())
	cmd.AddCommand(CheckCmd())
	cmd.AddCommand(InitCmd())
	cmd.AddCommand(WatchCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(VersionCmd())

	return cmd
}

// VersionCmd prints the roost version.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the roost version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			output.Raw("roost " + roost.Version + "\n")
		},
	}
}
