package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/rhartert/resat/cnf"
	"github.com/rhartert/resat/parsers"
	"github.com/rhartert/resat/pipeline"
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

var flagMaxSubsets = flag.Int64(
	"max_subsets",
	-1,
	"maximum number of candidate subsets explored by the filter search (-1 = no maximum)",
)

var flagMaxDuration = flag.Duration(
	"max_duration",
	-1,
	"wall-clock budget of the filter search (-1 = no budget)",
)

var flagWorkers = flag.Int(
	"workers",
	0,
	"number of goroutines evaluating candidates (0 = one per CPU)",
)

var flagGzipped = flag.Bool(
	"gzip",
	false,
	"read the instance file as gzip",
)

var flagOutput = flag.String(
	"o",
	"",
	"write the result lines to this file as well",
)

func parseConfig() (*config, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}
	return &config{
		instanceFile: flag.Arg(0),
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
		gzipped:      *flagGzipped,
		outputFile:   *flagOutput,
		options: pipeline.Options{
			MaxSubsets:  *flagMaxSubsets,
			MaxDuration: *flagMaxDuration,
			Workers:     *flagWorkers,
		},
	}, nil
}

type config struct {
	instanceFile string
	memProfile   bool
	cpuProfile   bool
	gzipped      bool
	outputFile   string
	options      pipeline.Options
}

// modelLine formats a model as a DIMACS value line, e.g. "v 1 -2 3 0".
func modelLine(model cnf.Assignment) string {
	sb := strings.Builder{}
	sb.WriteString("v")
	for v, val := range model {
		l := cnf.PositiveLiteral(v)
		if !val {
			l = l.Opposite()
		}
		fmt.Fprintf(&sb, " %d", l.DIMACS())
	}
	sb.WriteString(" 0")
	return sb.String()
}

func statusLine(res pipeline.Result) string {
	switch res.Status {
	case pipeline.Satisfiable:
		return "s SATISFIABLE"
	case pipeline.Unsatisfiable, pipeline.Exhausted:
		return "s UNSATISFIABLE"
	default:
		return "s UNKNOWN"
	}
}

func run(cfg *config) error {
	phi, err := parsers.LoadDIMACS(cfg.instanceFile, cfg.gzipped, 3)
	if err != nil {
		return fmt.Errorf("could not parse instance: %w", err)
	}

	fmt.Printf("c variables:        %d\n", phi.Variables)
	fmt.Printf("c clauses:          %d\n", len(phi.Clauses))

	p := pipeline.New(phi)

	t := time.Now()
	res, err := p.Run(context.Background(), cfg.options)
	elapsed := time.Since(t)
	if err != nil {
		return err
	}

	fmt.Printf("c free groups:      %d\n", res.FreeGroups)
	fmt.Printf("c subsets explored: %d\n", res.Search.Explored)
	fmt.Printf("c time (sec):       %f\n", elapsed.Seconds())
	fmt.Printf("c outcome:          %s\n", res.Status)

	lines := []string{statusLine(res)}
	if res.Status == pipeline.Satisfiable {
		lines = append(lines, modelLine(res.Model))
	}
	for _, l := range lines {
		fmt.Println(l)
	}

	if cfg.outputFile != "" {
		content := strings.Join(lines, "\n") + "\n"
		if err := os.WriteFile(cfg.outputFile, []byte(content), 0o644); err != nil {
			return fmt.Errorf("could not write output: %w", err)
		}
	}
	return nil
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
