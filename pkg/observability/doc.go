/*
Package observability provides tools for monitoring the fold splitter.

It turns splitter lifecycle hooks into Prometheus metrics and structured
log records, and lets hosts chain several hook sets together.
*/
package observability
