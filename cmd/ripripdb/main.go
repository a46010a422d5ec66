// Command ripripdb pre-fetches and locally caches a disc's AccurateRip and
// CTDB checksum payloads, so a later `riprip` run in an offline
// environment can verify against them without reaching the network (spec
// §1; grounded on cmd/dbgen's single-purpose fetch-and-cache shape).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/riprip/riprip/internal/cuetoc"
	"github.com/riprip/riprip/rip"
)

var (
	cuePath  = flag.String("cue", "", "cue sheet describing the disc to prefetch checksums for (required)")
	stateDir = flag.String("state-dir", "./_riprip", "directory riprip stores state under; the cache lives at <state-dir>/cache")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -cue <disc.cue> [-state-dir <dir>]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Downloads and caches a disc's AccurateRip/CTDB checksums for offline use.\n")
	}
	flag.Parse()

	if *cuePath == "" {
		fmt.Fprintln(os.Stderr, "Error: cue sheet required (-cue)")
		flag.Usage()
		os.Exit(1)
	}

	toc, err := cuetoc.Parse(*cuePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Fetching checksums for %d track(s)...\n", len(toc.Tracks()))
	if err := rip.PrefetchChecksums(context.Background(), toc, *stateDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}
