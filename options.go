package gmlparser

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AST output formats.
const (
	// FormatTree returns the syntax tree itself.
	FormatTree = "tree"
	// FormatSource additionally renders the tree back to canonical source.
	FormatSource = "source"
)

// Options controls the parse pipeline. The zero value is NOT the default
// configuration; start from DefaultOptions.
type Options struct {
	// GetComments attaches comment and whitespace trivia to the tree.
	GetComments bool `json:"getComments" yaml:"getComments"`

	// GetLocations keeps source locations on every node. When false the
	// tree is stripped of location metadata entirely.
	GetLocations bool `json:"getLocations" yaml:"getLocations"`

	// SimplifyLocations flattens locations to bare offsets. Only meaningful
	// while GetLocations is true.
	SimplifyLocations bool `json:"simplifyLocations" yaml:"simplifyLocations"`

	// GetIdentifierMetadata runs scope tracking and decorates identifier
	// occurrences with role and scope information.
	GetIdentifierMetadata bool `json:"getIdentifierMetadata" yaml:"getIdentifierMetadata"`

	// ASTFormat selects the result shape: FormatTree or FormatSource.
	ASTFormat string `json:"astFormat" yaml:"astFormat"`

	// AsJSON additionally serializes the tree to JSON in Result.JSON.
	AsJSON bool `json:"asJSON" yaml:"asJSON"`

	// Lenient keeps scanning past lexical errors, synthesizing error tokens
	// so the token stream still tiles the input.
	Lenient bool `json:"lenient" yaml:"lenient"`

	// ParagraphBreakThreshold is the number of blank lines tolerated between
	// a comment and the following code before the comment detaches from it.
	ParagraphBreakThreshold int `json:"paragraphBreakThreshold" yaml:"paragraphBreakThreshold"`

	// RuntimeVersion pins the target GameMaker runtime. Constructs newer
	// than the pinned runtime are rejected as syntax errors. Empty accepts
	// the full language surface.
	RuntimeVersion string `json:"runtimeVersion" yaml:"runtimeVersion"`
}

// DefaultOptions returns the standard configuration: full trees with
// locations and comments, no identifier metadata, no serialization.
func DefaultOptions() Options {
	return Options{
		GetComments:  true,
		GetLocations: true,
		ASTFormat:    FormatTree,
	}
}

// OptionsFromYAML decodes options from YAML, starting from DefaultOptions
// so omitted keys keep their defaults.
func OptionsFromYAML(data []byte) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("decode options: %w", err)
	}
	if err := opts.validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (o Options) validate() error {
	switch o.ASTFormat {
	case "", FormatTree, FormatSource:
		return nil
	default:
		return fmt.Errorf("unknown astFormat %q", o.ASTFormat)
	}
}
