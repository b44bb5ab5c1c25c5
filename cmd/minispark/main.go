// Command minispark runs a YAML job on an in-process engine.
//
//	minispark [--config config.yml] [--env-file .env] job.yaml
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/minispark/bootstrap"
	"github.com/kbukum/minispark/component"
	"github.com/kbukum/minispark/engine"
	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/job"
	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/observability"
	"github.com/kbukum/minispark/storage"
	_ "github.com/kbukum/minispark/storage/local"
	_ "github.com/kbukum/minispark/storage/redis"
	_ "github.com/kbukum/minispark/storage/s3"
	"github.com/kbukum/minispark/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "config file (default: config.yml lookup)")
	envFile := fs.String("env-file", "", ".env file (default: .env lookup)")
	workers := fs.IntP("workers", "w", 0, "worker pool size, overrides engine.workers")
	metricsLog := fs.String("metrics-log", "", "metrics log path, overrides engine.metrics_log")
	showVersion := fs.BoolP("version", "v", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <job.yaml|job.hcl>\n", serviceName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Println(version.Get())
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return 1
	}
	if *workers > 0 {
		cfg.Engine.Workers = *workers
	}
	if *metricsLog != "" {
		cfg.Engine.MetricsLog = *metricsLog
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return 1
	}
	log := logger.Get("cli")

	def, err := job.Load(fs.Arg(0))
	if err != nil {
		log.Error("cannot load job", logger.ErrorFields("load", err))
		return 1
	}

	store := storage.NewComponent(cfg.Storage)
	eng, err := engine.New(cfg.Engine, engine.WithOpener(store.Open))
	if err != nil {
		log.Error("cannot create engine", logger.ErrorFields("engine", err))
		return 1
	}
	telemetry := observability.NewTelemetry(cfg.Telemetry, cfg.Name, cfg.Version, cfg.Environment)
	// Telemetry first so it outlives the engine on shutdown.
	for _, c := range []component.Component{telemetry, store, eng} {
		if err := app.RegisterComponent(c); err != nil {
			log.Error("cannot register component", logger.ErrorFields("register", err))
			return 1
		}
	}

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		if err := def.ExpandInputs(ctx, store.Glob); err != nil {
			return err
		}
		res, err := job.Run(ctx, eng, def, job.Builtins(), os.Stdout)
		if err != nil {
			return err
		}
		switch res.Action {
		case job.ActionCount:
			fmt.Println(res.Count)
		case job.ActionCollect:
			for _, x := range res.Elements {
				fmt.Println(x)
			}
		}
		return nil
	})
	if errors.HasCode(err, errors.ErrCodeFileOpen) {
		// Components are already stopped here.
		log.Fatal("input unreadable", logger.Fields(logger.FieldJob, def.Name, logger.FieldError, err.Error()))
	}
	if err != nil {
		log.Error("job failed", logger.Fields(logger.FieldJob, def.Name, logger.FieldError, err.Error()))
		return 1
	}
	return 0
}
