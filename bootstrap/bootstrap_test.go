package bootstrap

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/minispark/component"
	"github.com/kbukum/minispark/config"
	"github.com/kbukum/minispark/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.events, ",")
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	healthy  bool
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.rec.add("start:" + f.name)
	f.healthy = true
	return nil
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	f.rec.add("stop:" + f.name)
	f.healthy = false
	return nil
}

func (f *fakeComponent) Health(ctx context.Context) component.Health {
	if f.healthy {
		return component.Health{Name: f.name, Status: component.StatusHealthy}
	}
	return component.Health{Name: f.name, Status: component.StatusUnhealthy, Message: "down"}
}

func quietLogger() *logger.Logger {
	cfg := logger.Config{}
	cfg.ApplyDefaults()
	return logger.NewWithWriter(&cfg, "test", io.Discard)
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{}, WithLogger(quietLogger()), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewAppAppliesDefaults(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "minispark" {
		t.Fatalf("expected default name, got %q", app.Name)
	}
	if app.Cfg.Environment != "development" {
		t.Fatalf("expected default environment, got %q", app.Cfg.Environment)
	}
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := &testConfig{}
	cfg.Environment = "moon"
	if _, err := NewApp(cfg, WithLogger(quietLogger())); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t)
	_ = app.RegisterComponent(&fakeComponent{name: "a", rec: rec})
	_ = app.RegisterComponent(&fakeComponent{name: "b", rec: rec})
	app.OnStart(func(context.Context) error { rec.add("onStart"); return nil })
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { rec.add("configure"); return nil })
	app.OnReady(func(context.Context) error { rec.add("onReady"); return nil })
	app.OnStop(func(context.Context) error { rec.add("onStop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		rec.add("task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	want := "start:a,start:b,onStart,configure,onReady,task,onStop,stop:b,stop:a"
	if got := rec.joined(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestRunTaskReturnsTaskError(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t)
	_ = app.RegisterComponent(&fakeComponent{name: "a", rec: rec})
	app.OnStop(func(context.Context) error { return errors.New("stop hook") })

	boom := errors.New("boom")
	err := app.RunTask(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected task error, got %v", err)
	}
	if !strings.Contains(rec.joined(), "stop:a") {
		t.Fatal("expected components to be stopped after a failed task")
	}
}

func TestRunTaskStartupFailure(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t)
	_ = app.RegisterComponent(&fakeComponent{name: "a", rec: rec})
	_ = app.RegisterComponent(&fakeComponent{name: "b", rec: rec, startErr: errors.New("no")})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if err == nil || ran {
		t.Fatalf("expected startup failure without running the task (err=%v ran=%v)", err, ran)
	}
	if got := rec.joined(); got != "start:a,stop:a" {
		t.Fatalf("expected rollback of started components, got %s", got)
	}
}

func TestRunTaskSignalCancels(t *testing.T) {
	app, err := NewApp(&testConfig{}, WithLogger(quietLogger()), WithSignals(syscall.SIGUSR1))
	if err != nil {
		t.Fatal(err)
	}
	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		_ = syscall.Kill(syscall.Getpid(), syscall.SIGUSR1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("signal did not cancel the task")
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t)
	c := &fakeComponent{name: "a", rec: rec}
	_ = app.RegisterComponent(c)

	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "a=unhealthy(down)") {
		t.Fatalf("expected unhealthy report, got %v", err)
	}
	c.healthy = true
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
}
