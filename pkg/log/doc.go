/*
Package log configures the zerolog-backed process logger and hands out
tagged child loggers.

There is deliberately no logger plumbing through constructors: the
scheduler core is a single component and its collaborators are identified
by a handful of stable fields. Call Init once at startup, then take child
loggers where work happens:

	log.Init(log.Config{Level: "debug"})

	logger := log.WithOffer(offer.ID, offer.Hostname)
	logger.Info().Str("ip", node.IP).Msg("registered node")

	hcLogger := log.With("executor_id", executorID)
	hcLogger.Info().Msg("health check result unhealthy")

Until Init runs the root logger discards output, so packages and tests
may log unconditionally without configuration.
*/
package log
