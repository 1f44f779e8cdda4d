package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/roost/internal/input"
	"github.com/simonhull/firebird-suite/roost/internal/naming"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

// InitCmd scaffolds a spec file.
func InitCmd() *cobra.Command {
	var global, path string
	var fieldFlags []string
	var force bool

	cmd := &cobra.Command{
		Use:   "init <TypeName>",
		Short: "Create a starter .roost.yml spec",
		Long: `Create a spec file for a new config type.

The global accessor name is asked for when --global is not given and the
terminal is interactive. Fields may be given with --field; otherwise the
spec gets one example field to edit.

Examples:
  roost init AppConfig
  roost init AppConfig --global Config --field 'port:int=8080'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName := args[0]

			if global == "" {
				global = defaultGlobal(typeName)
				if input.IsInteractive() {
					global = input.Prompt("Global accessor name", global)
				}
			}

			var fields []spec.Field
			for _, flag := range fieldFlags {
				f, err := spec.ParseFieldFlag(flag)
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}

			def := spec.Scaffold(typeName, global, fields)
			if err := spec.Validate(def); err != nil {
				return err
			}

			if path == "" {
				path = naming.Snake(typeName) + spec.FileSuffix
			}
			if _, err := os.Stat(path); err == nil && !force {
				if !input.IsInteractive() || !input.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false) {
					return fmt.Errorf("%s already exists; use --force to overwrite", path)
				}
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create %s: %w", dir, err)
				}
			}
			if err := spec.Write(path, def); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			output.Success(fmt.Sprintf("Created %s", path))
			output.Step("Edit the fields, then run: roost generate " + path)
			return nil
		},
	}

	cmd.Flags().StringVar(&global, "global", "", "Global accessor name (prompted for when omitted)")
	cmd.Flags().StringArrayVar(&fieldFlags, "field", nil, "Field as name:type=default (repeatable, in order)")
	cmd.Flags().StringVarP(&path, "output", "o", "", "Spec file to create (default: <type>.roost.yml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing spec file")

	return cmd
}

// defaultGlobal suggests an accessor name. A type named Config gets Get.
func defaultGlobal(typeName string) string {
	if typeName == "Config" {
		return "Get"
	}
	return "Config"
}
