package parser

import (
	"log/slog"
	"sync"
)

// Availability is the cached result of the structured-parser probe.
type Availability int

const (
	Unprobed Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unprobed"
	}
}

var (
	probeOnce   sync.Once
	probeResult Availability
)

// Probe checks once per process whether the structured parser works, by
// parsing a trivial module. Concurrent first callers share the single
// in-flight probe; the result is cached for the process lifetime. A later
// per-file parse failure does not flip the cached result — that single
// file falls back to the heuristic scanner instead.
func Probe() Availability {
	probeOnce.Do(func() {
		tree, err := Parse([]byte("defmodule Probe do\nend\n"))
		if err != nil {
			slog.Warn("parser.probe", "result", "unavailable", "err", err)
			probeResult = Unavailable
			return
		}
		defer tree.Close()
		if tree.RootNode() == nil {
			slog.Warn("parser.probe", "result", "unavailable", "err", "nil root")
			probeResult = Unavailable
			return
		}
		slog.Debug("parser.probe", "result", "available")
		probeResult = Available
	})
	return probeResult
}
