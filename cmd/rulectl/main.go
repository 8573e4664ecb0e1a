// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

// rulectl drives the rule engine from the command line: compile a rule
// file, run it against a project fixture for a number of steps, or
// serve the debug HTTP API over a running engine.
package main

import (
	"fmt"
	"math"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/go-rulectl/internal/ctlapi"
	"github.com/probechain/go-rulectl/internal/ctlconfig"
	"github.com/probechain/go-rulectl/internal/eval"
	"github.com/probechain/go-rulectl/internal/fixture"
	"github.com/probechain/go-rulectl/internal/history"
	"github.com/probechain/go-rulectl/internal/network"
	"github.com/probechain/go-rulectl/internal/rlog"
	"github.com/probechain/go-rulectl/internal/ruleload"
	"github.com/probechain/go-rulectl/internal/rules"
)

var (
	gitCommit = ""
	app       = cli.NewApp()
)

var (
	rulesFlag = cli.StringFlag{
		Name:  "rules",
		Usage: "path to the rule text file",
	}
	projectFlag = cli.StringFlag{
		Name:  "project",
		Usage: "path to the JSON project fixture",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML engine configuration file",
	}
	stepsFlag = cli.IntFlag{
		Name:  "steps",
		Usage: "number of routing steps to evaluate",
		Value: 1,
	}
	tstepFlag = cli.Float64Flag{
		Name:  "tstep",
		Usage: "routing step size, in days",
		Value: 1.0 / 1440.0,
	}
	explainFlag = cli.BoolFlag{
		Name:  "explain",
		Usage: "print tables of the compiled rules and of the final step's committed actions",
	}
	addrFlag = cli.StringFlag{
		Name:  "addr",
		Usage: "address the debug API listens on",
		Value: ":6090",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug-level logging",
	}
)

func init() {
	app.Name = "rulectl"
	app.Usage = "compile and run rule-based control logic for a routed network"
	app.Version = "0.1.0"
	if gitCommit != "" {
		app.Version += "-" + gitCommit[:8]
	}
	app.Flags = []cli.Flag{verboseFlag}
	app.Before = func(ctx *cli.Context) error {
		if ctx.GlobalBool(verboseFlag.Name) {
			rlog.SetLevel(rlog.LevelDebug)
		}
		return nil
	}
	app.Commands = []cli.Command{
		compileCommand,
		runCommand,
		serveCommand,
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("rulectl: %v", err))
		os.Exit(1)
	}
}

var compileCommand = cli.Command{
	Action:    compileRules,
	Name:      "compile",
	Usage:     "compile a rule file and report errors",
	ArgsUsage: " ",
	Flags:     []cli.Flag{rulesFlag, projectFlag},
	Category:  "ENGINE COMMANDS",
	Description: `
Compiles the rule file named by --rules against the object names in
the project fixture named by --project and reports either the number
of rules compiled or the first clause that failed, with its offending
token.`,
}

var runCommand = cli.Command{
	Action:    runRules,
	Name:      "run",
	Usage:     "evaluate a rule file against a project fixture",
	ArgsUsage: " ",
	Flags:     []cli.Flag{rulesFlag, projectFlag, configFlag, stepsFlag, tstepFlag, explainFlag},
	Category:  "ENGINE COMMANDS",
	Description: `
Loads a rule file and a JSON project fixture, then evaluates the
compiled rule table once per routing step, printing every committed
control action. --explain additionally prints a table of the compiled
rules (priority and premise/action counts) and a table of the actions
committed on the final step; it does not show which rules fired.`,
}

var serveCommand = cli.Command{
	Action:    serveRules,
	Name:      "serve",
	Usage:     "run the debug HTTP API over a stepping engine",
	ArgsUsage: " ",
	Flags:     []cli.Flag{rulesFlag, projectFlag, configFlag, tstepFlag, addrFlag},
	Category:  "ENGINE COMMANDS",
	Description: `
Starts the debug HTTP API (GET /rules, /rules/:id, /actions/recent,
/actions/stream) and steps the engine once per request to /tick,
publishing committed actions to /actions/recent and stream subscribers.`,
}

// noHistoryStore is the zero-value history.Store used when no results
// store is wired in: every BACK premise simply resolves to Missing.
type noHistoryStore struct{}

func (noHistoryStore) Nperiods() int                      { return 0 }
func (noHistoryStore) ReportStep() float64                { return 0 }
func (noHistoryStore) NodeDepth(int, int) (float64, bool)  { return 0, false }
func (noHistoryStore) NodeHead(int, int) (float64, bool)   { return 0, false }
func (noHistoryStore) NodeInflow(int, int) (float64, bool) { return 0, false }
func (noHistoryStore) LinkFlow(int, int) (float64, bool)   { return 0, false }
func (noHistoryStore) LinkDepth(int, int) (float64, bool)  { return 0, false }

type engine struct {
	rules   []rules.Rule
	project *fixture.Project
	driver  *eval.Driver
	ctx     *network.Context
}

func buildEngine(ctx *cli.Context, tstep float64) (*engine, error) {
	rulesPath := ctx.String(rulesFlag.Name)
	projectPath := ctx.String(projectFlag.Name)
	if rulesPath == "" || projectPath == "" {
		return nil, fmt.Errorf("--rules and --project are required")
	}

	cfg := ctlconfig.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := ctlconfig.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	proj, err := fixture.Load(projectPath)
	if err != nil {
		return nil, err
	}
	if cfg.Units != (ctlconfig.UnitConfig{}) {
		proj.Net.Units = network.UnitSystem{
			Flow: cfg.Units.Flow, Length: cfg.Units.Length, Volume: cfg.Units.Volume,
		}
	}

	clock := network.DefaultClock{}
	f, err := os.Open(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer f.Close()

	log := rlog.New("module", "rulectl")
	rs, err := ruleload.Load(f, proj, clock, log)
	if err != nil {
		return nil, err
	}

	hist, err := history.NewReader(noHistoryStore{}, 0)
	if err != nil {
		return nil, err
	}

	evalCtx := &network.Context{TStep: tstep, ReportStep: 300}
	resolver := network.NewResolver(&proj.Net, clock)
	evaluator := eval.New(resolver, hist, evalCtx, cfg, log)
	driver := eval.NewDriver(evaluator, nil, nil, log)

	return &engine{rules: rs, project: proj, driver: driver, ctx: evalCtx}, nil
}

func compileRules(ctx *cli.Context) error {
	e, err := buildEngine(ctx, 1.0/1440.0)
	if err != nil {
		return err
	}
	fmt.Println(color.GreenString("OK: compiled %d rules", len(e.rules)))
	return nil
}

func runRules(ctx *cli.Context) error {
	tstep := ctx.Float64(tstepFlag.Name)
	e, err := buildEngine(ctx, tstep)
	if err != nil {
		return err
	}
	steps := ctx.Int(stepsFlag.Name)
	if steps <= 0 {
		steps = 1
	}

	var last []eval.ActionEvent
	for i := 0; i < steps; i++ {
		e.ctx.ElapsedTime += tstep
		e.ctx.ClockTime += tstep
		if whole := math.Floor(e.ctx.ClockTime); whole > 0 {
			e.ctx.Date += whole
			e.ctx.ClockTime -= whole
		}
		last = e.driver.Step(e.rules)
		for _, ev := range last {
			fmt.Println(color.CyanString("step %d: link %d := %.4f (was %.4f, rule %s)",
				i, ev.LinkIndex, ev.NewValue, ev.OldValue, e.rules[ev.RuleIndex].ID))
		}
	}

	if ctx.Bool(explainFlag.Name) {
		printExplainTable(e, last)
	}
	return nil
}

func printExplainTable(e *engine, events []eval.ActionEvent) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rule", "Priority", "Premises", "Then", "Else"})
	for _, r := range e.rules {
		table.Append([]string{
			r.ID,
			fmt.Sprintf("%.1f", r.Priority),
			fmt.Sprintf("%d", len(r.Premises)),
			fmt.Sprintf("%d", len(r.ThenActions)),
			fmt.Sprintf("%d", len(r.ElseActions)),
		})
	}
	table.Render()

	if len(events) == 0 {
		fmt.Println(color.YellowString("no committed actions on the final step"))
		return
	}
	table = tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rule", "Link", "Old", "New"})
	for _, ev := range events {
		table.Append([]string{
			e.rules[ev.RuleIndex].ID,
			fmt.Sprintf("%d", ev.LinkIndex),
			fmt.Sprintf("%.4f", ev.OldValue),
			fmt.Sprintf("%.4f", ev.NewValue),
		})
	}
	table.Render()
}

func serveRules(ctx *cli.Context) error {
	tstep := ctx.Float64(tstepFlag.Name)
	e, err := buildEngine(ctx, tstep)
	if err != nil {
		return err
	}

	log := rlog.New("module", "rulectl")
	server := ctlapi.NewServer(e.rules, log)

	mux := http.NewServeMux()
	mux.Handle("/", server)
	mux.HandleFunc("/tick", func(w http.ResponseWriter, r *http.Request) {
		e.ctx.ElapsedTime += tstep
		e.ctx.ClockTime += tstep
		if whole := math.Floor(e.ctx.ClockTime); whole > 0 {
			e.ctx.Date += whole
			e.ctx.ClockTime -= whole
		}
		events := e.driver.Step(e.rules)
		server.PublishEvents(events)
		fmt.Fprintf(w, "committed %d actions\n", len(events))
	})

	addr := ctx.String(addrFlag.Name)
	log.Info("serving debug API", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
