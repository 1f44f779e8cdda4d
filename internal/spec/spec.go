package spec

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// APIVersion is the only spec version roost understands.
	APIVersion = "v1"
	// Kind identifies roost config specs.
	Kind = "Config"
	// FileSuffix is the conventional spec file suffix.
	FileSuffix = ".roost.yml"
)

// Definition represents a parsed and validated .roost.yml spec
type Definition struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"` // generated struct type name
	Spec       Spec   `yaml:"spec"`

	// Path is the file the definition was read from ("" for inline definitions).
	Path string `yaml:"-"`

	lines map[string]int
}

// Spec is the body of a config spec file
type Spec struct {
	Global  string   `yaml:"global"`            // global accessor name
	Package string   `yaml:"package,omitempty"` // detected from the output directory when empty
	Output  string   `yaml:"output,omitempty"`  // relative to the spec file
	Doc     string   `yaml:"doc,omitempty"`     // doc comment for the generated type
	Imports []string `yaml:"imports,omitempty"` // "path" or "alias path"
	Fields  []Field  `yaml:"fields"`
}

// Field is one (name, type, default) descriptor. Order is significant: it is
// the member order of the generated struct.
type Field struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default Expr   `yaml:"default"`
	Doc     string `yaml:"doc,omitempty"`
}

// Expr is a Go expression taken from a spec.
//
// A quoted YAML scalar ('x' or "x") becomes a Go string literal; any other
// scalar is used verbatim, so `default: 5 * time.Second` is an expression
// and `default: "production"` is the string "production".
type Expr string

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: default must be a single Go expression; use a block scalar (|-) for composite literals", node.Line)
	}
	if node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		*e = Expr(strconv.Quote(node.Value))
		return nil
	}
	*e = Expr(strings.TrimSpace(node.Value))
	return nil
}

// plainSafe matches expressions that survive as plain YAML scalars.
var plainSafe = regexp.MustCompile(`^[A-Za-z0-9_(][A-Za-z0-9_.()+\-*/ ]*$`)

// MarshalYAML implements yaml.Marshaler so that Write round-trips through Parse.
func (e Expr) MarshalYAML() (any, error) {
	s := string(e)
	if strings.HasPrefix(s, `"`) {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: unquoted}, nil
		}
	}
	if plainSafe.MatchString(s) {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: s}, nil
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.LiteralStyle, Value: s}, nil
}

// String returns the expression source.
func (e Expr) String() string {
	return string(e)
}

// Line returns the YAML line for a dotted path such as "spec.fields.0.default",
// or 0 when unknown.
func (d *Definition) Line(path string) int {
	return getLineNumber(d.lines, path)
}

// Parse reads and validates a spec file
func Parse(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	def, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.Path = path
	return def, nil
}

// ParseBytes reads and validates a spec from bytes
func ParseBytes(data []byte) (*Definition, error) {
	// First pass: node API for line numbers
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	lineMap := make(map[string]int)
	extractLineNumbers(&root, "", lineMap)

	// Second pass: strict decoding catches misspelled keys
	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse spec (check for unknown/misspelled fields): %w", err)
	}
	def.lines = lineMap

	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Write writes a spec to a file
func Write(path string, def *Definition) error {
	data, err := Marshal(def)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal encodes a spec as YAML with two-space indentation.
func Marshal(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, fmt.Errorf("failed to marshal spec: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal spec: %w", err)
	}
	return buf.Bytes(), nil
}

// extractLineNumbers walks the YAML node tree and records the line of every
// dotted path (sequence items use their index: spec.fields.0.name).
func extractLineNumbers(node *yaml.Node, path string, lineMap map[string]int) {
	if node == nil {
		return
	}

	if path != "" {
		lineMap[path] = node.Line
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			extractLineNumbers(node.Content[0], path, lineMap)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if path != "" {
				key = path + "." + key
			}
			extractLineNumbers(node.Content[i+1], key, lineMap)
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			extractLineNumbers(child, fmt.Sprintf("%s.%d", path, i), lineMap)
		}
	}
}

// getLineNumber retrieves the line number for a given path
func getLineNumber(lineMap map[string]int, path string) int {
	if lineMap == nil {
		return 0
	}
	return lineMap[path]
}
