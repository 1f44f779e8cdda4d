package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simonhull/firebird-suite/roost/internal/build"
	"github.com/simonhull/firebird-suite/roost/internal/naming"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

// ShowCmd renders a spec as a readable summary.
func ShowCmd() *cobra.Command {
	var code, plain bool

	cmd := &cobra.Command{
		Use:   "show <spec.roost.yml>",
		Short: "Describe the config type a spec generates",
		Long: `Print the type, accessor and fields a spec generates, with their
defaults. Use --code to include the generated declarations.

Output is rendered as styled markdown on a terminal; --plain prints the
markdown source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := spec.Parse(args[0])
			if err != nil {
				return err
			}

			doc, err := describe(cmd, def, code)
			if err != nil {
				return err
			}

			if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				output.Raw(doc)
				return nil
			}
			rendered, err := renderMarkdown(doc)
			if err != nil {
				return err
			}
			output.Raw(rendered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&code, "code", false, "Include the generated code")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print markdown without styling")

	return cmd
}

// describe builds the markdown summary of def.
func describe(cmd *cobra.Command, def *spec.Definition, code bool) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", def.Name)
	if def.Spec.Doc != "" {
		fmt.Fprintf(&b, "%s\n\n", def.Spec.Doc)
	}
	fmt.Fprintf(&b, "Accessor: `%s() *%s`\n\n", def.Spec.Global, def.Name)

	b.WriteString("| Field | Getter | Type | Default |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range def.Spec.Fields {
		fmt.Fprintf(&b, "| %s | `%s()` | `%s` | `%s` |\n",
			f.Name, naming.Accessor(f.Name), cell(f.Type), cell(f.Default.String()))
	}

	var documented []spec.Field
	for _, f := range def.Spec.Fields {
		if f.Doc != "" {
			documented = append(documented, f)
		}
	}
	if len(documented) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, f := range documented {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Name, f.Doc)
		}
	}

	fmt.Fprintf(&b, "\n## Inline form\n\n```sh\nroost generate --type %s --global %s", def.Name, def.Spec.Global)
	for _, f := range def.Spec.Fields {
		fmt.Fprintf(&b, " \\\n    --field %s", shellQuote(spec.FormatFieldFlag(f)))
	}
	b.WriteString("\n```\n")

	if code {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		settings, err := loadSettings(cmd, wd)
		if err != nil {
			return "", err
		}
		r, err := build.New(settings).Generate(build.Job{Def: def, BaseDir: filepath.Dir(def.Path)})
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n## Generated code\n\n`%s`\n\n```go\n%s```\n", displayPath(r.Path), r.File.Artifacts.Join())
	}
	return b.String(), nil
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func renderMarkdown(doc string) (string, error) {
	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render(doc)
}
