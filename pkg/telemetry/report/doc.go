// Package report exports metric snapshots to periodic sinks.
//
// Three reporters are provided: ConsoleReporter prints aligned tables,
// CSVReporter appends one CSV file per metric and SQLiteReporter stores rows
// in a metric_samples table. A Scheduler drives them on cron schedules and
// runs as a server.Service, so reporting starts and stops with the server.
//
//	sched := report.NewScheduler(registry, logger)
//	_ = sched.Add(report.NewConsoleReporter(os.Stdout), "@every 1m")
//	srv, _ := server.New(launch, app, server.WithService(sched))
package report
