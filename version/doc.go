// Package version reports build information for streamkit binaries.
//
//	go build -ldflags "-X github.com/kbukum/streamkit/version.Version=1.0.0"
package version
