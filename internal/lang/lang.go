// Package lang bundles the GML keyword and identifier classification tables
// shared by the scanner and the scope tracker. The tables are loaded lazily
// exactly once and are immutable afterwards, so concurrent parses may read
// them freely.
package lang

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Class is the lexical classification of a bare word.
type Class int

const (
	ClassIdentifier Class = iota // plain user identifier
	ClassKeyword                 // statement / declaration keyword
	ClassLiteral                 // keyword-shaped literal (true, undefined, ...)
	ClassWordOperator            // word-shaped operator (and, div, not, ...)
	ClassBuiltin                 // builtin instance variable (self, x, id, ...)
)

// String returns a string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassIdentifier:
		return "identifier"
	case ClassKeyword:
		return "keyword"
	case ClassLiteral:
		return "literal"
	case ClassWordOperator:
		return "word-operator"
	case ClassBuiltin:
		return "builtin"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// GlobalKeyword is the scope-override keyword. An identifier qualified with
// it always resolves to the root scope.
const GlobalKeyword = "global"

type tables struct {
	keywords  map[string]struct{}
	literals  map[string]struct{}
	wordOps   map[string]struct{}
	builtins  map[string]struct{}
	accessors map[byte]string
}

var (
	loadOnce sync.Once
	loaded   *tables
)

// load builds the bundled tables. Guarded by loadOnce so that concurrent
// first use observes a single fully-built table set.
func load() *tables {
	loadOnce.Do(func() {
		loaded = &tables{
			keywords: wordSet(
				"var", "globalvar", "function", "constructor", "static",
				"new", "delete", "if", "else", "while", "do", "until",
				"for", "repeat", "switch", "case", "default", "break",
				"continue", "exit", "return", "with", "enum", "try",
				"catch", "finally", "throw", "begin", "end", GlobalKeyword,
			),
			literals: wordSet("true", "false", "undefined", "noone", "all"),
			wordOps:  wordSet("and", "or", "xor", "not", "div", "mod"),
			builtins: wordSet(
				"self", "other", "id", "depth", "visible",
				"argument_count", "argument", "event_type", "event_number",
				"room", "room_speed", "instance_count",
			),
			accessors: map[byte]string{
				'|': "list",
				'?': "map",
				'#': "grid",
				'$': "struct",
				'@': "array",
			},
		}
	})
	return loaded
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Classify returns the lexical class of a bare word. Unknown words are plain
// identifiers.
func Classify(word string) Class {
	t := load()
	if _, ok := t.keywords[word]; ok {
		return ClassKeyword
	}
	if _, ok := t.literals[word]; ok {
		return ClassLiteral
	}
	if _, ok := t.wordOps[word]; ok {
		return ClassWordOperator
	}
	if _, ok := t.builtins[word]; ok {
		return ClassBuiltin
	}
	return ClassIdentifier
}

// IsBuiltin reports whether name is a builtin instance variable.
func IsBuiltin(name string) bool {
	_, ok := load().builtins[name]
	return ok
}

// AccessorName maps a specialized accessor marker (the character following
// an opening bracket) to its container name. Returns false for markers that
// do not introduce a specialized accessor.
func AccessorName(marker byte) (string, bool) {
	name, ok := load().accessors[marker]
	return name, ok
}

// FeatureSet describes which language surface a target runtime supports.
type FeatureSet struct {
	Functions        bool // function/constructor declarations, structs (2.3.0)
	StructLiterals   bool // { key: value } literals (2.3.0)
	NullishOperators bool // ?? and ??= (2.3.7)
	TemplateStrings  bool // $"..{expr}.." interpolation (2023.2)
}

var featureGates = []struct {
	version string
	apply   func(*FeatureSet)
}{
	{"2.3.0", func(f *FeatureSet) { f.Functions = true; f.StructLiterals = true }},
	{"2.3.7", func(f *FeatureSet) { f.NullishOperators = true }},
	{"2023.2", func(f *FeatureSet) { f.TemplateStrings = true }},
}

// Features returns the feature set for a GameMaker runtime version string.
// The empty string selects the newest known feature set. Versions newer than
// the newest gate also get the full set.
func Features(version string) (FeatureSet, error) {
	var fs FeatureSet
	if version == "" {
		for _, gate := range featureGates {
			gate.apply(&fs)
		}
		return fs, nil
	}
	target, err := semver.NewVersion(version)
	if err != nil {
		return fs, fmt.Errorf("invalid runtime version %q: %w", version, err)
	}
	for _, gate := range featureGates {
		min := semver.MustParse(gate.version)
		if !target.LessThan(min) {
			gate.apply(&fs)
		}
	}
	return fs, nil
}
