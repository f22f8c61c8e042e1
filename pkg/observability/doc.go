/*
Package observability turns builder lifecycle hooks into logs and metrics.

Hooks from several sources are merged with Combine; LoggingHooks and
Metrics.Hooks are the two bundled sources.
*/
package observability
