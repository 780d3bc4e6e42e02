// Command irview is an SSA printer for serialized program models.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rlange/anneal/ir"
	"github.com/rlange/anneal/model"
)

const (
	Usage = `irview is a tool for printing the SSA IR stored in serialized
program models.

Usage:

  irview [options] model.json [models.json...]

Options:

`
)

var (
	loadlogPath string
	outPath     string
	viewFunc    string
	dotGraph    bool

	out io.Writer
)

func init() {
	flag.StringVar(&loadlogPath, "log", "", "Specify load log file (use '-' for stdout)")
	flag.StringVar(&outPath, "out", "", "Specify output file (default: stdout)")
	flag.StringVar(&viewFunc, "func", "", `Specify the function to view (format: unit.FuncName or unit.(Recv).FuncName)`)
	flag.BoolVar(&dotGraph, "dot", false, "Print the call graph in graphviz dot format instead")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	loader := model.FromFiles(flag.Args()...)
	switch loadlogPath {
	case "":
	case "-":
		loader = loader.WithLog(os.Stdout, log.LstdFlags)
	default:
		f, err := os.Create(loadlogPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", loadlogPath, err)
		}
		defer f.Close()
		loader = loader.WithLog(f, log.LstdFlags)
	}

	switch outPath {
	case "":
		out = os.Stdout
	default:
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}

	prog, err := loader.Load()
	if err != nil {
		log.Fatal("Cannot load model:", err)
	}

	switch {
	case dotGraph:
		var fns []*ir.Function
		for _, u := range prog.Units {
			fns = append(fns, u.Functions()...)
		}
		if err := ir.BuildCallGraph(fns).WriteGraphviz(out); err != nil {
			log.Fatal("Cannot write call graph:", err)
		}
	case viewFunc != "":
		u, d, err := prog.FindDecl(viewFunc)
		if err != nil {
			log.Fatalf("Cannot parse function path %s: %v", viewFunc, err)
		}
		if d == nil || d.Fn == nil {
			log.Fatalf("Cannot find function %s", viewFunc)
		}
		fmt.Fprintf(out, "; %s\n", d.Qualified(u.Name))
		if _, err := d.Fn.WriteTo(out); err != nil {
			log.Fatal("Cannot write SSA:", err)
		}
	default:
		if _, err := prog.WriteTo(out); err != nil {
			log.Fatal("Cannot write SSA:", err)
		}
	}
}
