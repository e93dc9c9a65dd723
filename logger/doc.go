// Package logger wraps zerolog with the conventions used across hyperkit:
// a service-tagged root logger, component sub-loggers (httpclient, hyper,
// config) and helpers for attaching request IDs and pretty-printed payloads
// to the request/response audit trail.
//
//	log := logger.New(&logger.Config{Level: "debug"}, "hyperctl")
//	log.WithComponent("hyper").Info("schema loaded", logger.Fields("types", 42))
package logger
