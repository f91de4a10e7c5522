// Command rigidsim steps one of the built-in scenes, or a world loaded from
// a snapshot document, and prints the resulting body trajectories.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/engine-pi/jbox2d/common"
	"github.com/engine-pi/jbox2d/dynamics"
	"github.com/engine-pi/jbox2d/snapshot"
)

type config struct {
	scene              string
	load               string
	save               string
	svg                string
	tuning             string
	steps              int
	hz                 float64
	velocityIterations int
	positionIterations int
	trace              int
	verbose            bool
}

func parseFlags(args []string, output io.Writer) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("rigidsim", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.scene, "scene", "verticalstack", "built-in scene: "+strings.Join(sceneNames(), ", "))
	fs.StringVar(&cfg.load, "load", "", "start from a snapshot `file` instead of a built-in scene")
	fs.StringVar(&cfg.save, "save", "", "write a snapshot of the final world to `file`")
	fs.StringVar(&cfg.svg, "svg", "", "draw the final world to an SVG `file`")
	fs.StringVar(&cfg.tuning, "tuning", "", "YAML solver tuning `file`")
	fs.IntVar(&cfg.steps, "steps", 600, "number of steps")
	fs.Float64Var(&cfg.hz, "hz", 60, "steps per simulated second")
	fs.IntVar(&cfg.velocityIterations, "vel", 8, "velocity iterations")
	fs.IntVar(&cfg.positionIterations, "pos", 3, "position iterations")
	fs.IntVar(&cfg.trace, "trace", 0, "print body positions every `n` steps")
	fs.BoolVar(&cfg.verbose, "v", false, "log step profiles")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.steps < 0 || cfg.hz <= 0 || cfg.trace < 0 {
		return cfg, errors.New("steps and trace must not be negative and hz must be positive")
	}
	if _, ok := scenes[cfg.scene]; !ok && cfg.load == "" {
		return cfg, fmt.Errorf("unknown scene %q", cfg.scene)
	}
	return cfg, nil
}

func buildWorld(cfg config, logger *slog.Logger) (*dynamics.World, error) {
	opts := []dynamics.Option{dynamics.WithLogger(logger)}

	if cfg.tuning != "" {
		tuning, err := common.LoadTuning(cfg.tuning)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dynamics.WithTuning(tuning))
	}

	if cfg.load != "" {
		data, err := os.ReadFile(cfg.load)
		if err != nil {
			return nil, err
		}
		doc, err := snapshot.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.load, err)
		}
		return snapshot.Restore(doc, opts...)
	}

	world := dynamics.NewWorld(common.MakeVec2(0.0, -10.0), opts...)
	if err := scenes[cfg.scene](world); err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.scene, err)
	}
	return world, nil
}

func printBodies(w io.Writer, step int, world *dynamics.World) {
	i := 0
	for b := world.GetBodyList(); b != nil; b = b.GetNext() {
		if b.GetType() != dynamics.StaticBody {
			p := b.GetPosition()
			fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.4f\t%v\n", step, i, p.X, p.Y, b.GetAngle(), b.IsAwake())
		}
		i++
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	world, err := buildWorld(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("start",
		slog.String("scene", cfg.scene),
		slog.Int("bodies", world.GetBodyCount()),
		slog.Int("joints", world.GetJointCount()),
		slog.Int("steps", cfg.steps))

	dt := float32(1.0 / cfg.hz)
	fmt.Fprintln(stdout, "step\tbody\tx\ty\tangle\tawake")
	for step := 1; step <= cfg.steps; step++ {
		world.Step(dt, cfg.velocityIterations, cfg.positionIterations)

		if cfg.trace > 0 && step%cfg.trace == 0 {
			printBodies(stdout, step, world)
		}
		if cfg.verbose {
			profile := world.GetProfile()
			logger.Debug("step",
				slog.Int("step", step),
				slog.Duration("total", profile.Step),
				slog.Duration("collide", profile.Collide),
				slog.Duration("solve", profile.Solve),
				slog.Duration("toi", profile.SolveTOI),
				slog.Int("contacts", world.GetContactCount()))
		}
	}
	if cfg.trace == 0 || cfg.steps%cfg.trace != 0 {
		printBodies(stdout, cfg.steps, world)
	}

	if cfg.save != "" {
		doc, err := snapshot.Capture(world, snapshot.SkipUnsupported())
		if err != nil {
			return err
		}
		data, err := snapshot.Marshal(doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cfg.save, data, 0o644); err != nil {
			return err
		}
		logger.Info("saved", slog.String("file", cfg.save))
	}

	if cfg.svg != "" {
		if err := writeSVG(cfg.svg, world); err != nil {
			return err
		}
		logger.Info("drawn", slog.String("file", cfg.svg))
	}

	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "rigidsim:", err)
		os.Exit(1)
	}
}
