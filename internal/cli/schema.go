package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ethos-finder/ethos/internal/output"
)

// SchemaCmd outputs the machine-readable command tree
type SchemaCmd struct {
	Command string `arg:"" optional:"" help:"Command path to show schema for (e.g., 'vault set')"`
}

// SchemaNode represents a node in the command tree
type SchemaNode struct {
	Name     string        `json:"name" yaml:"name"`
	Type     string        `json:"type" yaml:"type"` // "application", "command", "argument"
	Help     string        `json:"help,omitempty" yaml:"help,omitempty"`
	Aliases  []string      `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Hidden   bool          `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Children []*SchemaNode `json:"commands,omitempty" yaml:"commands,omitempty"`
	Flags    []*SchemaFlag `json:"flags,omitempty" yaml:"flags,omitempty"`
	Args     []*SchemaArg  `json:"args,omitempty" yaml:"args,omitempty"`
}

// SchemaFlag represents a command flag
type SchemaFlag struct {
	Name     string   `json:"name" yaml:"name"`
	Help     string   `json:"help,omitempty" yaml:"help,omitempty"`
	Type     string   `json:"type" yaml:"type"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Default  string   `json:"default,omitempty" yaml:"default,omitempty"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Short    string   `json:"short,omitempty" yaml:"short,omitempty"`
	Env      string   `json:"env,omitempty" yaml:"env,omitempty"`
	Complete string   `json:"complete,omitempty" yaml:"complete,omitempty"`
}

// SchemaArg represents a positional argument
type SchemaArg struct {
	Name     string   `json:"name" yaml:"name"`
	Help     string   `json:"help,omitempty" yaml:"help,omitempty"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Complete string   `json:"complete,omitempty" yaml:"complete,omitempty"`
}

// Run executes the schema command. Plain and rich modes print JSON.
func (cmd *SchemaCmd) Run(ctx *kong.Context, fp *FormatterProvider) error {
	rootNode := ctx.Model.Node

	var targetNode *kong.Node
	if cmd.Command == "" {
		targetNode = rootNode
	} else {
		var err error
		targetNode, err = findNodeByPath(rootNode, cmd.Command)
		if err != nil {
			return err
		}
	}

	schema := buildSchemaNode(targetNode)

	if fp.Mode == "yaml" {
		return fp.Formatter.Print(schema)
	}
	return output.NewJSON(true).Print(schema)
}

// predictorOf returns the completion predictor named in a value's tag
func predictorOf(v *kong.Value) string {
	if v == nil || v.Tag == nil {
		return ""
	}
	return v.Tag.Get("predictor")
}

func enumOf(v *kong.Value) []string {
	if v == nil || v.Enum == "" {
		return nil
	}
	var values []string
	for _, e := range strings.Split(v.Enum, ",") {
		if e != "" {
			values = append(values, e)
		}
	}
	return values
}

// buildSchemaNode recursively builds schema from Kong node
func buildSchemaNode(node *kong.Node) *SchemaNode {
	schema := &SchemaNode{
		Name:    node.Name,
		Type:    nodeTypeString(node.Type),
		Help:    node.Help,
		Aliases: node.Aliases,
		Hidden:  node.Hidden,
	}

	// Extract flags (skip system flags like --help, --version)
	for _, flag := range node.Flags {
		if flag.Name == "help" || flag.Name == "version" {
			continue
		}

		// Get type string from reflection
		typeName := "string"
		if flag.Value != nil && flag.Value.Target.IsValid() {
			typeName = fmt.Sprintf("%T", flag.Value.Target.Interface())
		}

		// Get environment variable (use first one if multiple)
		env := ""
		if len(flag.Envs) > 0 {
			env = flag.Envs[0]
		}

		schemaFlag := &SchemaFlag{
			Name:     flag.Name,
			Help:     flag.Help,
			Type:     typeName,
			Required: flag.Required,
			Default:  flag.Default,
			Env:      env,
			Enum:     enumOf(flag.Value),
			Complete: predictorOf(flag.Value),
		}

		if flag.Short != 0 {
			schemaFlag.Short = string(flag.Short)
		}

		schema.Flags = append(schema.Flags, schemaFlag)
	}

	// Extract positional arguments
	for _, arg := range node.Positional {
		schemaArg := &SchemaArg{
			Name:     arg.Name,
			Help:     arg.Help,
			Required: arg.Required,
			Enum:     enumOf(arg),
			Complete: predictorOf(arg),
		}
		schema.Args = append(schema.Args, schemaArg)
	}

	for _, child := range node.Children {
		schema.Children = append(schema.Children, buildSchemaNode(child))
	}

	return schema
}

// findNodeByPath walks the node tree to find a specific command path
func findNodeByPath(root *kong.Node, path string) (*kong.Node, error) {
	parts := strings.Fields(path)
	current := root

	for _, part := range parts {
		found := false
		for _, child := range current.Children {
			if child.Name == part {
				current = child
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("command not found: %s", path)
		}
	}

	return current, nil
}

// nodeTypeString converts Kong node type to string
func nodeTypeString(t kong.NodeType) string {
	switch t {
	case kong.ApplicationNode:
		return "application"
	case kong.CommandNode:
		return "command"
	case kong.ArgumentNode:
		return "argument"
	default:
		return "unknown"
	}
}
