// Package component defines the lifecycle interface shared by long-running
// pieces of hyperkit: Start, Stop and Health.
package component
