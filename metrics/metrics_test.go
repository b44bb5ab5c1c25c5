package metrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/minispark/observability"
)

var lineRE = regexp.MustCompile(`^RDD \d+ Part \d+ Trans [0-4] -- creation \d+\.\d{6}, scheduled \d+\.\d{6}, execution \(usec\) \d+$`)

func TestFormat(t *testing.T) {
	created := time.Unix(1700000000, 123456789)
	m := &TaskMetric{
		RDDID:     3,
		Partition: 1,
		Kind:      2,
		Created:   created,
		Scheduled: created.Add(333 * time.Microsecond),
		Duration:  42*time.Microsecond + 900*time.Nanosecond,
	}
	want := "RDD 3 Part 1 Trans 2 -- creation 1700000000.123456, scheduled 1700000000.123789, execution (usec) 42"
	if got := Format(m); got != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestFormatPadsMicroseconds(t *testing.T) {
	at := time.Unix(5, 7000)
	got := Format(&TaskMetric{Created: at, Scheduled: at})
	if !strings.Contains(got, "creation 5.000007, scheduled 5.000007") {
		t.Fatalf("expected six-digit microseconds, got %q", got)
	}
}

func TestCollectorWritesInOrder(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(Config{QueueCapacity: 2}, WithWriter(&buf))
	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	now := time.Now()
	for i := 0; i < 50; i++ {
		if err := c.Push(&TaskMetric{RDDID: i, Partition: i % 3, Kind: i % 5, Created: now, Scheduled: now}); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 || c.Written() != 50 {
		t.Fatalf("expected 50 lines, got %d (written %d)", len(lines), c.Written())
	}
	for i, line := range lines {
		if !lineRE.MatchString(line) {
			t.Fatalf("malformed line %q", line)
		}
		if !strings.HasPrefix(line, fmt.Sprintf("RDD %d ", i)) {
			t.Fatalf("expected FIFO order at line %d, got %q", i, line)
		}
	}
}

func TestCollectorConcurrentPush(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(Config{QueueCapacity: 4}, WithWriter(&buf))
	c.Start()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Push(&TaskMetric{RDDID: w, Partition: i})
			}
		}(w)
	}
	wg.Wait()
	c.Stop()

	if got := strings.Count(buf.String(), "\n"); got != 800 {
		t.Fatalf("expected 800 lines, got %d", got)
	}
}

func TestCollectorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.log")
	if err := os.WriteFile(path, []byte("stale line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCollector(Config{Path: path})
	if err := c.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.Push(&TaskMetric{RDDID: 1})
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Fatal("expected the log to be truncated on start")
	}
	if !strings.HasPrefix(string(data), "RDD 1 Part 0 Trans 0") {
		t.Fatalf("unexpected log contents %q", data)
	}
}

func TestCollectorOpenError(t *testing.T) {
	c := NewCollector(Config{Path: filepath.Join(t.TempDir(), "missing", "metrics.log")})
	if err := c.Start(); err == nil {
		t.Fatal("expected Start to fail for a missing directory")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop of an unstarted collector should succeed, got %v", err)
	}
}

func TestPushAfterStop(t *testing.T) {
	c := NewCollector(Config{}, WithWriter(&bytes.Buffer{}))
	c.Start()
	c.Stop()
	if err := c.Push(&TaskMetric{}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteErrorSurfacesOnStop(t *testing.T) {
	c := NewCollector(Config{}, WithWriter(failingWriter{}))
	c.Start()
	c.Push(&TaskMetric{})
	if err := c.Stop(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected flush error, got %v", err)
	}
}

func TestCollectorRecordsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inst, err := observability.NewMetrics(mp.Meter(observability.InstrumentationName))
	if err != nil {
		t.Fatal(err)
	}

	c := NewCollector(Config{}, WithWriter(&bytes.Buffer{}), WithInstruments(inst))
	c.Start()
	c.Push(&TaskMetric{KindName: "MAP", Duration: 10 * time.Microsecond})
	c.Push(&TaskMetric{KindName: "FILTER", Duration: 10 * time.Microsecond})
	c.Push(&TaskMetric{KindName: "MAP", Duration: 10 * time.Microsecond})
	c.Stop()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != observability.MetricTaskTotal {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 3 {
		t.Fatalf("expected 3 tasks recorded, got %d", total)
	}
}
