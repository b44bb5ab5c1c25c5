// Package engine is an in-process, data-parallel execution engine over lazy
// partitioned datasets (RDDs).
//
// Callers build a transform graph with Map, Filter, Join, PartitionBy and
// FromFiles. Nothing runs until an action (Count, Print, Collect) is issued:
// the engine then submits one task per partition of every RDD the target
// depends on, ancestors first, to a fixed worker pool. Each task waits until
// its dependencies are fully materialized, computes its partition, commits it
// and hands a TaskMetric to the asynchronous metrics collector.
//
//	e, _ := engine.New(engine.Config{Workers: 4})
//	_ = e.Run()
//	defer e.TearDown()
//
//	lines, _ := e.FromFiles("a.txt", "b.txt")
//	words := e.Filter(e.Map(lines, strings.TrimSpace), nonEmpty, nil)
//	n, _ := e.Count(ctx, words)
//
// An RDD is computed at most once per engine; repeated actions over shared
// sub-graphs reuse the materialized partitions. A panicking user function is
// not recovered.
package engine
