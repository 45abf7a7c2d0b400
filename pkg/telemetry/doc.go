// Package telemetry provides structured logging for the ucg tool.
//
// # Overview
//
// Logging is built on zerolog. A Logger is created once at process start
// and flows to the engine components as child loggers tagged with their
// component name and the build run ID, so every log line of a run can be
// correlated.
//
// # Usage Example
//
//	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
//	    Level:  "debug",
//	    Format: "console",
//	    Output: "stderr",
//	})
//	if err != nil {
//	    return err
//	}
//	buildLog := logger.NewComponentLogger("build")
//	buildLog.Infof("building %d files", n)
//
// Diagnostics meant for the user (parse errors, type failures, assert
// summaries) are printed by the CLI directly; the logger carries the
// operational trail only.
package telemetry
