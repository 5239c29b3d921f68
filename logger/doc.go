// Package logger provides structured logging for streamkit using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers with map-based structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("streamchannel")
//	log.Info("connection opened", logger.Fields("url", url))
package logger
