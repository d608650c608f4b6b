// Package logging provides file-based structured JSON logging with
// size-based rotation for the indexing core. Setup always writes to the
// configured log file and, when WriteToStderr is set (the default),
// mirrors every record to stderr. The CLI logs to logs/telemetry.jsonl
// under the project metadata directory at info level, or at debug
// level with --verbose.
package logging
