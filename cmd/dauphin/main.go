// Command dauphin is the reference CLI driver for the pre-image compiler
// pipeline, the command-suite registry, and the command-library loader
// (spec §6.4).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"dauphin/commandlib"
	"dauphin/commandset"
	"dauphin/config"
	"dauphin/internal/trace"
	"dauphin/ir"
	"dauphin/pipeline"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: dauphin <version|compile|generate-dynamic-data|run> [flags] [files...]")
		os.Exit(2)
	}
	action := os.Args[1]

	fs := flag.NewFlagSet(action, flag.ExitOnError)
	verbose := fs.Int("verbose", -1, "verbosity 0..3")
	profile := fs.Bool("profile", false, "write zstd-compressed per-pass profiles")
	optLevel := fs.Int("opt-level", -1, "optimization level 0..6 (overridden by --opt-seq)")
	optSeq := fs.String("opt-seq", "", "explicit optimization pass sequence, overrides --opt-level")
	output := fs.String("output", "", "output path (defaults to stdout)")
	runName := fs.String("run", "", "protected register name to evaluate (run action; defaults to the file's own declaration)")
	nostd := fs.Bool("nostd", false, "do not load the standard command library")
	debugRun := fs.Bool("debug-run", false, "force full verbosity and profile dumps for this invocation")
	configPath := fs.String("config", "dauphin.yaml", "driver config file")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	driverCfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}

	level := driverCfg.OptLevel
	if *optLevel >= 0 {
		level = *optLevel
	}
	seq, err := pipeline.OptSeqForLevel(level)
	if err != nil {
		fail(err)
	}
	if *optSeq != "" {
		seq = *optSeq
	}

	v := driverCfg.Verbose
	if *verbose >= 0 {
		v = *verbose
	}
	if *debugRun {
		v = 3
	}
	trace.Init(v > 0, nil, os.Stderr)

	cfg := pipeline.Config{
		Verbose: v,
		Profile: *profile || *debugRun || driverCfg.Profile,
	}

	switch action {
	case "version":
		fmt.Println(version)
	case "compile":
		err = runCompile(fs.Args(), seq, cfg, *output, *nostd)
	case "generate-dynamic-data":
		err = runGenerateDynamicData(*output, *nostd)
	case "run":
		err = runRun(fs.Args(), seq, cfg, *output, *runName, *nostd)
	default:
		err = errors.Errorf("unknown action %q", action)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(2)
}

func linkerFor(nostd bool) *commandlib.Loader {
	if nostd {
		return commandlib.NewLoader()
	}
	return commandlib.NewStdLoader()
}

// runCompile loads each positional *.dp file as a fixture-format register
// program, pre-images it through the pipeline, and writes the resulting
// disassembly. Each file's run is independent, so they fan out over an
// errgroup (SPEC_FULL domain stack) rather than running serially.
func runCompile(files []string, optSeq string, cfg pipeline.Config, output string, nostd bool) error {
	if len(files) == 0 {
		return errors.New("compile: no input files given")
	}
	linker := linkerFor(nostd)

	results := make([]string, len(files))
	var g errgroup.Group
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			f, err := pipeline.LoadFixtureFile(path)
			if err != nil {
				return err
			}
			fileCfg := cfg
			fileCfg.DebugName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

			out, protected, err := f.Compile(linker, optSeq, fileCfg)
			if err != nil {
				return errors.Wrapf(err, "compiling %s", path)
			}
			results[i] = fmt.Sprintf("=== %s (protected %s) ===\n%s", path, protected, ir.Dump(out))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return writeOutput(output, strings.Join(results, "\n"))
}

// runRun compiles exactly one file fully (opt-level/opt-seq still apply)
// and prints the concrete value materialized at its protected register —
// or the one named by --run, when given.
func runRun(files []string, optSeq string, cfg pipeline.Config, output, runName string, nostd bool) error {
	if len(files) != 1 {
		return errors.New("run: expected exactly one input file")
	}
	f, err := pipeline.LoadFixtureFile(files[0])
	if err != nil {
		return err
	}
	if runName != "" {
		f.Protected = runName
	}

	linker := linkerFor(nostd)
	out, protected, err := f.Compile(linker, optSeq, cfg)
	if err != nil {
		return errors.Wrapf(err, "running %s", files[0])
	}

	value, ok := pipeline.EvalConst(out, protected)
	if !ok {
		return errors.Errorf("%s: protected register %s never materialized to a constant", files[0], protected)
	}
	return writeOutput(output, fmt.Sprintf("%v\n", value))
}

// runGenerateDynamicData serializes the host's command-suite registry —
// the standard command library unless --nostd is set — into the wire
// format a compiled program ships alongside (§4.2.2, §6.3).
func runGenerateDynamicData(output string, nostd bool) error {
	registry := commandset.NewRegistry()
	if !nostd {
		set := commandlib.NewStdLoader().CommandSet("std", 1, 0)
		if err := registry.Register(set); err != nil {
			return err
		}
	}

	data, err := registry.Serialize().Marshal()
	if err != nil {
		return errors.Wrap(err, "marshaling command-suite mapping")
	}
	if output == "" {
		log.Printf("generated %d bytes of command-suite mapping for sets: %v", len(data), registry.Describe())
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o644)
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
