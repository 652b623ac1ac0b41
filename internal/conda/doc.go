// Package conda locates the conda package manager on the host and exposes
// the environments it manages.
//
// Locating conda is expensive: it may spawn a process per candidate binary.
// A Locator therefore resolves the binary once, sharing the in-flight probe
// between concurrent callers, and hands out an immutable *Conda. Queries made
// through a *Conda go through a cache.Invoker so repeated calls within the
// cache TTL do not spawn conda again.
//
// File organization:
//   - probe.go: candidate binary paths, in priority order (Candidates)
//   - locate.go: single-flight resolution of the binary (Locator)
//   - conda.go, info.go: the *Conda handle and `conda info --json` decoding
//   - history.go: Python version from conda-meta/history
//   - envs.go: environment listing, matching and conda-meta detection
//   - version.go: conda version parsing and feature gating
package conda
