// Command anneal analyzes and optimizes serialized program models.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"

	"github.com/rlange/anneal/engine"
	"github.com/rlange/anneal/model"
	"github.com/rlange/anneal/optim"
	"github.com/rlange/anneal/report"
)

const (
	Usage = `anneal is a static analysis and optimization engine for serialized
program models.

Usage:

  anneal [options] model.json [models.json...]

Options:

`
)

var (
	confPath string
	format   string
	jobs     int
	logPath  string
	outPath  string
	noColor  bool
	timeout  time.Duration
	emitIR   bool

	logWriter = io.Discard
)

func init() {
	flag.StringVar(&confPath, "conf", "", "Specify YAML configuration file")
	flag.StringVar(&format, "format", "", "Specify report format: text or json (default: from config)")
	flag.IntVar(&jobs, "jobs", 0, "Specify worker pool size (default: number of CPUs)")
	flag.StringVar(&logPath, "log", "", "Specify analysis log file (use '-' for stderr)")
	flag.StringVar(&outPath, "out", "", "Specify report output file (default: stdout)")
	flag.BoolVar(&noColor, "nocolor", false, "Disable colors in the text report")
	flag.DurationVar(&timeout, "timeout", 0, "Specify run deadline, e.g. 30s (default: none)")
	flag.BoolVar(&emitIR, "emit", false, "Print optimized SSA after the report")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprint(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}
	if noColor {
		color.NoColor = true
	}

	conf := engine.DefaultConfig()
	if confPath != "" {
		var err error
		conf, err = engine.LoadConfigFile(confPath)
		if err != nil {
			log.Fatal("Cannot load config:", err)
		}
	}
	if format != "" {
		conf = conf.WithFormat(format)
	}
	if jobs > 0 {
		conf = conf.WithConcurrency(jobs)
	}

	loader := model.FromFiles(flag.Args()...)
	var logFile string
	switch logPath {
	case "":
	case "-":
		logWriter = os.Stderr
		loader = loader.WithLog(logWriter, log.LstdFlags)
	default:
		f, err := os.Create(logPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", logPath, err)
		}
		defer f.Close()
		loader = loader.WithLog(f, log.LstdFlags)
		logWriter = f
		logFile = f.Name()
	}

	prog, err := loader.Load()
	if err != nil {
		log.Fatal("Cannot load model:", err)
	}

	eng, err := engine.New(prog, conf, logWriter)
	if err != nil {
		log.Fatal("Cannot configure engine:", err)
	}
	if logFile != "" {
		eng.AddLogFiles(logFile)
	}

	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("Cannot create output file %s: %v", outPath, err)
		}
		defer f.Close()
		out = f
	}
	eng.SetOutput(out)

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rep, runErr := eng.Run(ctx)
	if err := eng.Write(rep); err != nil {
		log.Fatal("Cannot write report:", err)
	}
	if emitIR {
		writeOptimized(out, rep)
	}
	if runErr != nil {
		log.Fatal("Analysis incomplete:", runErr)
	}
}

// writeOptimized prints the rewritten SSA stored by the optimize pass.
func writeOptimized(w io.Writer, rep *report.Report) {
	keys := make([]string, 0, len(rep.Results))
	for k := range rep.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		res, ok := rep.Results[k].(*optim.UnitResult)
		if !ok {
			continue
		}
		names := make([]string, 0, len(res.Optimized))
		for name := range res.Optimized {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "; %s %s\n", k, name)
			if _, err := res.Optimized[name].WriteTo(w); err != nil {
				log.Fatal("Cannot write SSA:", err)
			}
			fmt.Fprintln(w)
		}
	}
}
