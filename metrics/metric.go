package metrics

import (
	"fmt"
	"time"
)

// TaskMetric describes one executed partition task.
type TaskMetric struct {
	RDDID     int
	Partition int
	// Kind is the numeric transform kind written to the log.
	Kind int
	// KindName labels the OpenTelemetry instruments.
	KindName string
	// Created is when the task was built by the scheduler.
	Created time.Time
	// Scheduled is when a worker picked the task up.
	Scheduled time.Time
	// Duration is the execution time, measured once every dependency is
	// materialized and ending when the partition is committed.
	Duration time.Duration
}

// Format renders m as one log line, without the trailing newline:
//
//	RDD 3 Part 1 Trans 2 -- creation 1700000000.000123, scheduled 1700000000.000456, execution (usec) 42
func Format(m *TaskMetric) string {
	return fmt.Sprintf("RDD %d Part %d Trans %d -- creation %s, scheduled %s, execution (usec) %d",
		m.RDDID, m.Partition, m.Kind,
		wallclock(m.Created), wallclock(m.Scheduled),
		m.Duration.Microseconds())
}

func wallclock(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}
