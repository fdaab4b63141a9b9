// mutc compiles customization graphs into program archives.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/mutable/archive"
	"github.com/chazu/mutable/compiler"
	"github.com/chazu/mutable/errlog"
	"github.com/chazu/mutable/graphfile"
	"github.com/chazu/mutable/manifest"
	"github.com/chazu/mutable/node"
	"github.com/chazu/mutable/program"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: mutc <command> [options] [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  compile [-o archive.db] [-manifest dir] [-name name] [-strict] [graph.cue]\n")
	fmt.Fprintf(w, "  list    archive.db\n")
	fmt.Fprintf(w, "  roms    archive.db name\n")
	fmt.Fprintf(w, "  disasm  archive.db name\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  mutc compile avatar.cue            # Compile into ./programs.db\n")
	fmt.Fprintf(w, "  mutc compile -strict               # Use the graph of ./mutable.toml, fail on errors\n")
	fmt.Fprintf(w, "  mutc roms programs.db avatar       # List the streamed constants of avatar\n")
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "compile":
		return handleCompileCommand(ctx, args[1:], stdout, stderr)
	case "list":
		err = withArchive(args[1:], 1, func(a *archive.Archive, _ []string) error {
			return listPrograms(ctx, a, stdout)
		})
	case "roms":
		err = withArchive(args[1:], 2, func(a *archive.Archive, rest []string) error {
			return listRoms(ctx, a, rest[0], stdout)
		})
	case "disasm":
		err = withArchive(args[1:], 2, func(a *archive.Archive, rest []string) error {
			p, err := a.Get(ctx, rest[0])
			if err != nil {
				return err
			}
			return p.Disassemble(stdout)
		})
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		usage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// withArchive opens the archive named by args[0] and calls fn with the
// remaining arguments.
func withArchive(args []string, want int, fn func(*archive.Archive, []string) error) error {
	if len(args) != want {
		return fmt.Errorf("expected %d arguments, got %d", want, len(args))
	}
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("cannot open archive: %w", err)
	}
	a, err := archive.Open(args[0])
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a, args[1:])
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

func handleCompileCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", "Output archive (default from mutable.toml, or programs.db)")
	manifestDir := fs.String("manifest", "", "Directory holding mutable.toml (default: search upwards from .)")
	name := fs.String("name", "", "Program name in the archive (default: graph file name)")
	strict := fs.Bool("strict", false, "Exit with status 1 when the compilation reports errors")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	verbosity := 1
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	logger := commonlog.GetLogger("mutc")

	m, err := loadManifest(*manifestDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading manifest: %v\n", err)
		return 1
	}

	graphPath := fs.Arg(0)
	opts := compiler.DefaultOptions()
	archivePath := "programs.db"
	project := ""
	if m != nil {
		opts = m.CompilerOptions()
		archivePath = m.ArchivePath()
		project = m.Project.Name
		if graphPath == "" {
			graphPath = m.GraphPath()
		}
		if *name == "" {
			*name = m.Output.Name
		}
	}
	if graphPath == "" {
		fmt.Fprintln(stderr, "Error: no graph given and no project graph configured")
		return 2
	}
	if *output != "" {
		archivePath = *output
	}
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(graphPath), filepath.Ext(graphPath))
	}

	root, err := graphfile.Load(graphPath, graphfile.Options{Project: project})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if obj, ok := root.(*node.ObjectNew); ok && m != nil {
		m.ApplyStates(obj)
	}

	prog, elog, err := compiler.Compile(ctx, root, opts)
	if elog != nil {
		elog.Emit(logger, opts.MaxPerSpamBin)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	a, err := archive.Open(archivePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()
	if err := a.Put(ctx, *name, prog); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	errs, warns := elog.Count(errlog.Error), elog.Count(errlog.Warning)
	fmt.Fprintf(stdout, "%s: %d ops, %d states, %d params, %d roms (%d errors, %d warnings)\n",
		*name, prog.OpCount(), len(prog.States), len(prog.Params), len(prog.Roms), errs, warns)

	if *strict && errs > 0 {
		return 1
	}
	return 0
}

func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}
	return manifest.FindAndLoad(".")
}

// ---------------------------------------------------------------------------
// list, roms
// ---------------------------------------------------------------------------

func listPrograms(ctx context.Context, a *archive.Archive, w io.Writer) error {
	entries, err := a.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOPS\tSTATES\tROMS\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", e.Name, e.Ops, e.States, e.Roms, e.Created.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func listRoms(ctx context.Context, a *archive.Archive, name string, w io.Writer) error {
	p, err := a.Get(ctx, name)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tINDEX\tLOD\tSIZE\tSOURCE\tFLAGS")
	for _, r := range p.Roms {
		flags := "-"
		if r.Flags&program.RomHighRes != 0 {
			flags = "highres"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%s\n", r.ID, r.Type, r.Index, r.LOD, r.Size, r.SourceID, flags)
	}
	return tw.Flush()
}
