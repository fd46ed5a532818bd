/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// bwecho is a TCP echo server whose clients share one bandwidth group.
//
// Usage:
//
//	# Start with defaults (1 MiB/s each way, listening on :7070, metrics on :9090)
//	bwecho run
//
//	# Start with a configuration file
//	bwecho run --config /etc/bwecho/config.yaml
//
//	# Override listen address and log level
//	bwecho run --listen 127.0.0.1:8080 --log-level debug
//
//	# Show version information
//	bwecho version
//
// Every parameter may also be set with an environment variable, e.g. BWECHO_BWGROUP_READRATE=512K.
package main

func main() {
	Execute()
}
