// Package bootstrap runs a minispark binary through a uniform lifecycle:
// start components, run hooks and configure callbacks, execute a task, then
// shut everything down in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(telemetry)
//	app.RegisterComponent(eng)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := job.Run(ctx, eng, def, job.Builtins(), os.Stdout)
//	    return err
//	})
package bootstrap
