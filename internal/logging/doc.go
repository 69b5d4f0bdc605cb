// Package logging provides opt-in file-based logging with rotation for Scout.
// When the --debug flag is set, comprehensive logs are written to ~/.scout/logs/
// for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
// In MCP server mode logs go exclusively to file, since stdout and stderr
// belong to the JSON-RPC transport.
package logging
