// Package log builds the slog loggers used by photobrowse.
//
// Every logger returned here wraps its output handler in a RedactingHandler,
// which masks credentials before a record is written: attributes whose key
// names a secret (authorization, token, cookie, ...), values that look like
// bearer or JSON web tokens, and sensitive query parameters inside URLs. The
// photo API token and avatar URLs signed with access keys therefore never
// reach a log file, even with --verbose.
//
//	logger := log.New(os.Stderr, verbose)
//	slog.SetDefault(logger)
//	logger.Debug("fetch", "url", "https://api.example.com/photo?access_token=abc")
//	// url=https://api.example.com/photo?access_token=***REDACTED***
package log
