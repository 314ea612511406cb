// Blush CLI - compiles and runs blush programs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/mx-mw/blush/cache"
	"github.com/mx-mw/blush/manifest"
	"github.com/mx-mw/blush/pkg/bytecode"
	"github.com/mx-mw/blush/pkg/lexer"

	_ "github.com/tliron/commonlog/simple"
)

const containerExt = ".blc"

var log = commonlog.GetLogger("blush")

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "build":
		err = cmdBuild(args[1:])
	case "run":
		err = cmdRun(args[1:])
	case "dump":
		err = cmdDump(args[1:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: blush <command> [options] <file>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  build    Compile a source file to a %s container\n", containerExt)
	fmt.Fprintf(os.Stderr, "  run      Compile (or load) and execute a program\n")
	fmt.Fprintf(os.Stderr, "  dump     Disassemble a source file or container\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  blush build main.blush           # Write main%s\n", containerExt)
	fmt.Fprintf(os.Stderr, "  blush build -o out%s main.blush  # Choose the output path\n", containerExt)
	fmt.Fprintf(os.Stderr, "  blush run main.blush             # Compile and run (cached)\n")
	fmt.Fprintf(os.Stderr, "  blush run -trace main%s         # Run a container with tracing\n", containerExt)
	fmt.Fprintf(os.Stderr, "  blush dump main%s               # Show constants and bytecode\n", containerExt)
}

func configureLogging(verbose bool) {
	verbosity := 0
	if verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
}

// loadManifest finds the project manifest for a file, if any.
func loadManifest(path string) *manifest.Manifest {
	m, err := manifest.FindAndLoad(filepath.Dir(path))
	if err != nil {
		log.Warningf("ignoring manifest: %v", err)
		return nil
	}
	return m
}

func compileSourceFile(path string) (*bytecode.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := bytecode.Compile(lexer.New(string(source)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	output := fs.String("o", "", "Output path (default: source name with "+containerExt+")")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("build expects exactly one source file")
	}
	path := fs.Arg(0)
	configureLogging(*verbose)

	prog, err := compileSourceFile(path)
	if err != nil {
		return err
	}
	data, err := prog.Encode()
	if err != nil {
		return err
	}

	out := *output
	if out == "" {
		if m := loadManifest(path); m != nil && m.Build.Output != "" {
			out = filepath.Join(m.Dir, m.Build.Output)
		} else {
			out = strings.TrimSuffix(path, filepath.Ext(path)) + containerExt
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}

	log.Infof("wrote %s (%d chunks, %d bytes)", out, len(prog.Chunks), len(data))
	return nil
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	trace := fs.Bool("trace", false, "Print each instruction as it executes")
	noCache := fs.Bool("no-cache", false, "Skip the compiled-program cache")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("run expects exactly one file")
	}
	path := fs.Arg(0)
	configureLogging(*verbose)

	m := loadManifest(path)

	prog, err := loadProgram(path, m, *noCache)
	if err != nil {
		return err
	}

	vm := bytecode.NewVM(prog.Open(), prog.Scope)
	vm.Trace = *trace || (m != nil && m.Run.Trace)
	if err := vm.Run(); err != nil {
		return err
	}

	log.Infof("executed %d chunks", len(prog.Chunks))
	return nil
}

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("dump expects exactly one file")
	}
	path := fs.Arg(0)
	configureLogging(*verbose)

	prog, err := loadProgram(path, nil, true)
	if err != nil {
		return err
	}
	fmt.Print(prog.Disassemble())
	return nil
}

// loadProgram loads a compiled container directly, or compiles a source
// file, consulting the project cache when one is configured.
func loadProgram(path string, m *manifest.Manifest, noCache bool) (*bytecode.Program, error) {
	if filepath.Ext(path) == containerExt {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return bytecode.DecodeProgram(data)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	useCache := !noCache && m != nil && m.Build.Cache
	var store *cache.Store
	var hash string
	if useCache {
		dbPath := m.CacheDBPath()
		os.MkdirAll(filepath.Dir(dbPath), 0755)
		store, err = cache.Open(dbPath)
		if err != nil {
			log.Warningf("cache disabled: %v", err)
		} else {
			defer store.Close()
			hash = cache.SourceHash(source)
			if data, ok, err := store.Get(hash); err == nil && ok {
				log.Debugf("cache hit for %s", path)
				return bytecode.DecodeProgram(data)
			}
		}
	}

	prog, err := bytecode.Compile(lexer.New(string(source)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if store != nil {
		data, err := prog.Encode()
		if err == nil {
			if err := store.Put(hash, data); err != nil {
				log.Warningf("cache store failed: %v", err)
			}
		}
	}
	return prog, nil
}
