// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing,
//   - leveled helpers that take a context (Infof, ErrorKV, etc.).
//
// Request handlers and services extract the logger from the context, so the
// request ID and component name travel with every line they write.
package logger
