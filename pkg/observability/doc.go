/*
Package observability exports Prometheus metrics for documents: mutation
counters by verb, plus history depth and cursor gauges.

Metrics attach through the same event surface any subscriber uses, so
instrumenting a tree costs one wildcard subscription per verb and never
touches the mutation path itself.
*/
package observability
