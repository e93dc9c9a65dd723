// Package version reports build information for hyperctl.
//
//	go build -ldflags "-X github.com/kbukum/hyperkit/version.Version=1.0.0" ./cmd/hyperctl
package version
