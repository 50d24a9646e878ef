package main

// flags.go defines the CLI's command-line surface, kept separate from
// main.go so the dispatch logic there stays readable.
//
// © 2025 arcclock authors. MIT License.

import (
	"flag"
	"time"
)

type options struct {
	target  string
	json    bool
	watch   bool
	interval time.Duration
	version bool

	heapProfile      string
	goroutineProfile string
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.target, "target", "http://localhost:6060", "base URL of the running arcclock service")
	flag.BoolVar(&o.json, "json", false, "emit the raw snapshot as JSON instead of a pretty summary")
	flag.BoolVar(&o.watch, "watch", false, "poll the snapshot endpoint repeatedly")
	flag.DurationVar(&o.interval, "interval", 2*time.Second, "poll interval when -watch is set")
	flag.BoolVar(&o.version, "version", false, "print the inspector's own version and exit")
	flag.StringVar(&o.heapProfile, "heap-profile", "", "download a heap pprof profile to this path and exit")
	flag.StringVar(&o.goroutineProfile, "goroutine-profile", "", "download a goroutine pprof profile to this path and exit")
	flag.Parse()
	return o
}
