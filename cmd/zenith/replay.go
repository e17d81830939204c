package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-zenith/internal/log"
	"github.com/teslashibe/go-zenith/pkg/recorder"
	"github.com/teslashibe/go-zenith/pkg/report"
)

var (
	replayExport string
	replayAdvice bool
)

// replayCmd replays a recorded sample script offline
var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a sensor script and print the session report",
	Long: `Run a YAML or JSON script of sensor samples through the metric engine
without a timer and print the resulting report. Each sample holds gaze, jitter
and volume for "repeat" ticks and may carry a final transcript in "say".

Example script:

  tick_interval: 1s
  seed: 42
  samples:
    - {gaze: true, volume: 40, repeat: 10, say: "umm good morning"}
    - {gaze: false, jitter: 0.01, repeat: 5}`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayExport, "export", "", "Comma-separated exporters to run: png, json")
	replayCmd.Flags().BoolVar(&replayAdvice, "advice", false, "Ask the advice generator for a critique")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.L()
	ctx := cmd.Context()

	script, err := recorder.LoadScript(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	data, err := recorder.Replay(ctx, script,
		recorder.WithPolicy(policyFrom(cfg)),
		recorder.WithObserver(func(line string) {
			fmt.Fprintln(out, "[AI_LOG]: "+line)
		}),
		recorder.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var r *report.Report
	if replayAdvice {
		r = report.Build(ctx, data, adviceGenerator(ctx, cfg, logger))
	} else {
		r = report.Build(ctx, data, nil)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, r.Text())

	for _, kind := range strings.Split(replayExport, ",") {
		var e report.Exporter
		switch strings.TrimSpace(kind) {
		case "":
			continue
		case "png":
			e = report.PNGExporter{Dir: cfg.Export.Dir}
		case "json":
			e = report.JSONExporter{Dir: cfg.Export.Dir}
		default:
			return fmt.Errorf("unknown exporter %q", kind)
		}
		path, err := e.Export(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "exported:", path)
	}
	return nil
}
