// Command agentsim runs scenario scripts and replays headless against a
// config directory and reports whether every expectation held.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/younwookim/agentloco/internal/application/replay"
	"github.com/younwookim/agentloco/internal/application/scenario"
	"github.com/younwookim/agentloco/internal/application/sim"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
	"github.com/younwookim/agentloco/internal/infrastructure/script"
)

func main() {
	configDir := flag.String("config", "cmd/sandbox/configs", "Config directory")
	logLevel := flag.String("log", "warn", "Log level: debug, info, warn, error")
	jsonOut := flag.Bool("json", false, "Print reports as JSON lines")
	replayFile := flag.String("replay", "", "Replay a recorded session and check its state trace")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: agentsim [flags] scenario.scn ...\n       agentsim [flags] -replay session.json\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	cfg, err := config.NewLoader(*configDir).LoadAll()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	var hooks *script.Hooks
	if len(cfg.Hooks) > 0 {
		if hooks, err = script.Compile(cfg.Hooks); err != nil {
			log.Fatalf("Failed to compile hooks: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &runner{cfg: cfg, hooks: hooks, log: logger, out: os.Stdout, json: *jsonOut}

	var ok bool
	switch {
	case *replayFile != "":
		ok, err = r.replay(*replayFile)
	case flag.NArg() > 0:
		ok, err = r.scenarios(ctx, flag.Args())
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		os.Exit(1)
	}
}

type runner struct {
	cfg   *config.SimConfig
	hooks *script.Hooks
	log   logging.Logger
	out   io.Writer
	json  bool
}

// newSim builds a fresh simulation; every run starts from the config
func (r *runner) newSim() (*sim.Simulation, error) {
	return sim.New(r.cfg, sim.Options{Logger: r.log, Hooks: r.hooks})
}

// scenarios runs each file and reports whether all of them passed
func (r *runner) scenarios(ctx context.Context, files []string) (bool, error) {
	passed := true
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return false, err
		}
		sc, err := scenario.Parse(filepath.Base(f), string(src))
		if err != nil {
			return false, err
		}

		s, err := r.newSim()
		if err != nil {
			return false, err
		}
		rep, err := scenario.NewRunner(s, r.log).Run(ctx, sc)
		s.Close()
		if err != nil {
			return false, err
		}
		r.report(f, rep)
		passed = passed && rep.Passed()
	}
	return passed, nil
}

func (r *runner) report(file string, rep *scenario.Report) {
	if r.json {
		_ = json.NewEncoder(r.out).Encode(rep)
		return
	}
	status := "PASS"
	if !rep.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(r.out, "%s %s (%q, %d ticks, %d changes, %d checks)\n", status, file, rep.Scenario, rep.Ticks, rep.Changes, rep.Checks)
	for _, f := range rep.Failures {
		fmt.Fprintf(r.out, "    line %d at %.3fs: expect %s, got %s\n", f.Line, f.At, f.Expect, f.Got)
	}
}

// replay feeds a recorded session to a fresh simulation and compares the
// state changes with the recorded ones
func (r *runner) replay(file string) (bool, error) {
	data, err := replay.LoadReplay(file)
	if err != nil {
		return false, err
	}
	s, err := r.newSim()
	if err != nil {
		return false, err
	}
	defer s.Close()

	replayer := replay.NewReplayer(*data)
	got := replayer.Run(s)
	diff := replay.Diff(data.States, got)

	if r.json {
		_ = json.NewEncoder(r.out).Encode(struct {
			RunID  string `json:"runId"`
			Frames int    `json:"frames"`
			Diff   string `json:"diff,omitempty"`
		}{replayer.RunID(), replayer.TotalFrames(), diff})
	} else if diff == "" {
		fmt.Fprintf(r.out, "PASS %s (%d frames, %d changes)\n", file, replayer.TotalFrames(), len(got))
	} else {
		fmt.Fprintf(r.out, "FAIL %s: %s\n", file, diff)
	}
	return diff == "", nil
}
