// Package logger provides zerolog-backed structured logging for the engine,
// its worker pool and the metrics collector.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"   # console | json
//	  output: "stderr"    # stdout | stderr | discard
//
// # Usage
//
//	log := logger.Get("engine")
//	log.Info("task done", logger.TaskFields(rddID, partition))
package logger
