// vehicle opens a window with the morphing car/flight/robot vehicle.
//
//	go run ./demos/vehicle --log-level debug --debug
//	go run ./demos/vehicle --scenario demos/vehicle/takeoff.yaml
package main

import (
	"fmt"
	"os"

	"github.com/phanxgames/morph"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("vehicle", pflag.ContinueOnError)
	morph.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := morph.Load("", fs)
	if err != nil {
		return err
	}
	logger, err := morph.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var (
		src      morph.EventSource
		scenario *morph.Scenario
	)
	if cfg.Scenario != "" {
		synthetic := morph.NewSyntheticSource()
		scenario, err = morph.LoadScenario(cfg.Scenario, synthetic)
		if err != nil {
			return err
		}
		src = synthetic
	} else {
		src = morph.NewKeyboardSource()
	}

	session := morph.NewSession(cfg, src, logger)
	if scenario != nil {
		session.SetScenario(scenario)
		logger.Info("running scenario", zap.String("path", cfg.Scenario))
	}

	err = morph.Run(session, morph.RunConfig{
		Title:                cfg.Window.Title,
		Width:                cfg.Window.Width,
		Height:               cfg.Window.Height,
		TPS:                  cfg.Window.TPS,
		ExitWhenScenarioDone: scenario != nil,
	})
	if scenario != nil {
		if failures := scenario.Failures(); len(failures) > 0 {
			return fmt.Errorf("scenario %q: %d expectation(s) failed", scenario.Name, len(failures))
		}
	}
	return err
}
