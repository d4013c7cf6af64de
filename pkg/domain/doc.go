/*
Package domain contains the core models of the fold splitter.

It defines critical-line configurations, selectors, the per-document
request snapshot, the element events exchanged with producers, and the
errors and lifecycle events surfaced to hosts. This package is kept pure
and free of I/O.

# Key Entities

  - Selector: a tail-anchored path pattern such as div[@id = "main"]/div[4].
  - RegionSpec: a start selector plus an optional end selector.
  - CriticalLineConfig: the ordered list of RegionSpecs for a document.
  - Request: URL, configuration, serving mode and flags for one document.
  - Summary: what a finished document produced.
*/
package domain
