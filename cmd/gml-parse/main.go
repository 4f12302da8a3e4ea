package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	gmlparser "github.com/SimulatorLife/gml-parser"
)

// gml-parse: parse GML sources and emit the result.
// Flags:
//
//	-config   YAML file with pipeline options.
//	-json     emit the syntax tree as JSON to stdout.
//	-source   emit the canonical reprint to stdout.
//	-metadata annotate identifiers with scope roles.
//	-lenient  keep scanning past lexical errors.
//	-runtime  target runtime version (rejects newer syntax).
//	-workers  parallel workers for multiple files.
//	-stdin    read one source from stdin instead of files.
func main() {
	var (
		configPath string
		asJSON     bool
		asSource   bool
		metadata   bool
		lenient    bool
		runtime    string
		workers    int
		fromStdin  bool
	)
	flag.StringVar(&configPath, "config", "", "YAML file with pipeline options")
	flag.BoolVar(&asJSON, "json", false, "emit the syntax tree as JSON")
	flag.BoolVar(&asSource, "source", false, "emit the canonical reprint")
	flag.BoolVar(&metadata, "metadata", false, "annotate identifiers with scope roles")
	flag.BoolVar(&lenient, "lenient", false, "keep scanning past lexical errors")
	flag.StringVar(&runtime, "runtime", "", "target runtime version")
	flag.IntVar(&workers, "workers", 4, "parallel workers")
	flag.BoolVar(&fromStdin, "stdin", false, "read source from stdin")
	flag.Parse()

	opts, err := loadOptions(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if asJSON {
		opts.AsJSON = true
	}
	if asSource {
		opts.ASTFormat = gmlparser.FormatSource
	}
	if metadata {
		opts.GetIdentifierMetadata = true
	}
	if lenient {
		opts.Lenient = true
	}
	if runtime != "" {
		opts.RuntimeVersion = runtime
	}

	units, err := collectUnits(fromStdin, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(units) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gml-parse [flags] file.gml ...")
		os.Exit(2)
	}

	results := gmlparser.ParseBatch(context.Background(), units, opts, workers)

	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			continue
		}
		switch {
		case opts.AsJSON:
			os.Stdout.Write(r.Result.JSON)
			fmt.Println()
		case opts.ASTFormat == gmlparser.FormatSource:
			fmt.Print(r.Result.Source)
		default:
			fmt.Printf("%s: ok (%d top-level statements)\n", r.Name, len(r.Result.Program.Body))
		}
	}

	if failed {
		fmt.Fprintln(os.Stderr, gmlparser.FormatErrors(results))
		os.Exit(1)
	}
}

func loadOptions(path string) (gmlparser.Options, error) {
	if path == "" {
		return gmlparser.DefaultOptions(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return gmlparser.Options{}, err
	}
	return gmlparser.OptionsFromYAML(data)
}

func collectUnits(fromStdin bool, paths []string) ([]gmlparser.Unit, error) {
	if fromStdin {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return []gmlparser.Unit{{Name: "<stdin>", Source: string(src)}}, nil
	}
	units := make([]gmlparser.Unit, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		units = append(units, gmlparser.Unit{Name: path, Source: string(src)})
	}
	return units, nil
}
