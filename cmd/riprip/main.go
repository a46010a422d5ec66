// Command riprip performs an iterative, recovery-oriented audio CD rip
// (spec §6.2).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/riprip/riprip"
	"github.com/riprip/riprip/internal/cuetoc"
	"github.com/riprip/riprip/internal/rawdrive"
	"github.com/riprip/riprip/rip"
	"github.com/riprip/riprip/sample"
	"github.com/riprip/riprip/schedule"
)

// Flags are registered under both their short and long spellings against
// the same variable, the way a single-letter-plus-word flag pair is
// usually done with the standard flag package (there is no dual-name
// registration helper to reach for instead).
var (
	cuePath = flag.String("cue", "", "cue sheet describing the disc's track layout (required)")
	devPath string

	tracksStr  string
	offset     int64
	rereadsStr string
	cutoff     = flag.Uint("cutoff", 2, "reread agreements before a Likely sample stops being re-read, 1..32")
	passes     int
	confidence = flag.Int("confidence", 3, "minimum matching submissions required to confirm a track, 1..10")

	backwards = flag.Bool("backwards", false, "read each pass's sectors back to front")
	flipFlop  = flag.Bool("flip-flop", false, "alternate direction by pass parity")

	noResume    = flag.Bool("no-resume", false, "ignore any existing state_NN.bin and start fresh")
	noRip       = flag.Bool("no-rip", false, "skip reading the drive; verify/export existing state only")
	noSummary   = flag.Bool("no-summary", false, "suppress progress output")
	noC2        = flag.Bool("no-c2", false, "don't request C2 error pointers")
	noCacheBust = flag.Bool("no-cache-bust", false, "skip the pre-pass dummy read")
	noSync      = flag.Bool("no-sync", false, "don't validate Q-subchannel position before trusting a sector")
	reset       = flag.Bool("reset", false, "demote Likely samples to Maybe before ripping, keeping their values (keeps Confirmed tracks)")
	status      = flag.Bool("status", false, "report existing state and exit, without touching the drive")
	strict      = flag.Bool("strict", false, "one C2 bit anywhere in a sector errors the whole sector")
	verbose     = flag.Bool("verbose", false, "log every sector read, not just pass summaries")
	raw         = flag.Bool("raw", false, "export headerless PCM instead of WAV")

	cacheKiB    int
	cacheCodec  = flag.String("cache-codec", "none", "on-disk sample array compression: none, zstd, or lzma")
	bundlePath  = flag.String("bundle", "", "offline AccurateRip/CTDB bundle (.zip/.7z/.rar) instead of HTTP")
	flacArchive = flag.Bool("flac-archive", false, "also write a FLAC-encoded archival copy of each confirmed track")
	stateDir    = flag.String("state-dir", "./_riprip", "directory holding per-track state and output")

	showVersion bool
)

const appVersion = "0.1.0"

func init() {
	const (
		devUsage      = "path to the disc image (defaults to the cue sheet's own FILE)"
		tracksUsage   = "comma-separated track list, e.g. 1,3,5-7 (default: every track)"
		offsetUsage   = "signed read offset in samples, ±5880"
		rereadsUsage  = "abs,mul reread agreement counts"
		passesUsage   = "maximum passes, 1..16"
		cacheUsage    = "cache size in KiB; stored in the config, not read by any component"
		versionUsage  = "print version and exit"
		rereadsDefault = "2,2"
	)
	flag.StringVar(&devPath, "d", "", devUsage)
	flag.StringVar(&devPath, "dev", "", devUsage)
	flag.StringVar(&tracksStr, "t", "", tracksUsage)
	flag.StringVar(&tracksStr, "tracks", "", tracksUsage)
	flag.Int64Var(&offset, "o", 0, offsetUsage)
	flag.Int64Var(&offset, "offset", 0, offsetUsage)
	flag.StringVar(&rereadsStr, "r", rereadsDefault, rereadsUsage)
	flag.StringVar(&rereadsStr, "rereads", rereadsDefault, rereadsUsage)
	flag.IntVar(&passes, "p", 8, passesUsage)
	flag.IntVar(&passes, "passes", 8, passesUsage)
	flag.IntVar(&cacheKiB, "c", 0, cacheUsage)
	flag.IntVar(&cacheKiB, "cache", 0, cacheUsage)
	flag.BoolVar(&showVersion, "V", false, versionUsage)
	flag.BoolVar(&showVersion, "version", false, versionUsage)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -cue <disc.cue> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Iteratively rips an audio CD, re-reading only what's still unconfirmed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -cue disc.cue -o -30\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -cue disc.cue -status\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -cue disc.cue -t 1,3,5-7 -passes 16\n", os.Args[0])
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("riprip version %s\n", appVersion)
		os.Exit(0)
	}

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

	cfg, err := buildConfig(toc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	drive := rawdrive.New()
	controller := rip.New(cfg, drive, toc)
	if *verbose {
		controller.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	err = controller.Run(context.Background())
	os.Exit(exitCode(err))
}

func buildConfig(toc *cuetoc.TOC) (riprip.Config, error) {
	cfg := riprip.DefaultConfig()

	cfg.DevPath = devPath
	if cfg.DevPath == "" {
		cfg.DevPath = toc.BinPath
	}

	tracks, err := parseTrackList(tracksStr)
	if err != nil {
		return cfg, fmt.Errorf("riprip: -tracks: %w", err)
	}
	cfg.Tracks = tracks

	cfg.Offset = offset

	rr, err := parseRereads(rereadsStr)
	if err != nil {
		return cfg, fmt.Errorf("riprip: -rereads: %w", err)
	}
	cfg.Rereads = rr

	cfg.Cutoff = uint8(*cutoff) //nolint:gosec // Validate rejects out-of-range values below
	cfg.Passes = passes
	cfg.Confidence = *confidence
	cfg.Direction = pickDirection()

	cfg.NoResume = *noResume
	cfg.NoRip = *noRip
	cfg.NoSummary = *noSummary
	cfg.NoC2 = *noC2
	cfg.NoCacheBust = *noCacheBust
	cfg.NoSync = *noSync
	cfg.Reset = *reset
	cfg.Status = *status
	cfg.Strict = *strict
	cfg.Verbose = *verbose
	cfg.Raw = *raw
	cfg.FLACArchive = *flacArchive
	cfg.BundlePath = *bundlePath
	cfg.StateDir = *stateDir
	cfg.CacheKiB = cacheKiB

	codec, err := parseCacheCodec(*cacheCodec)
	if err != nil {
		return cfg, fmt.Errorf("riprip: -cache-codec: %w", err)
	}
	cfg.CacheCodec = codec

	if verr := cfg.Validate(); verr != nil {
		return cfg, verr
	}
	return cfg, nil
}

func pickDirection() schedule.Direction {
	switch {
	case *flipFlop:
		return schedule.FlipFlop
	case *backwards:
		return schedule.Backward
	default:
		return schedule.Forward
	}
}

// parseTrackList expands a comma-separated list of track numbers and
// ranges ("1,3,5-7") into an explicit slice; an empty string means every
// track (the zero value riprip.Config.Tracks already carries).
func parseTrackList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			loN, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("bad range %q: %w", part, err)
			}
			hiN, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("bad range %q: %w", part, err)
			}
			for n := loN; n <= hiN; n++ {
				out = append(out, n)
			}
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad track %q: %w", part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// parseRereads parses the "abs,mul" reread agreement pair (spec §6.2,
// default 2,2).
func parseRereads(s string) (sample.Rereads, error) {
	abs, mul, ok := strings.Cut(s, ",")
	if !ok {
		return sample.Rereads{}, fmt.Errorf("expected abs,mul, got %q", s)
	}
	absN, err := strconv.Atoi(strings.TrimSpace(abs))
	if err != nil {
		return sample.Rereads{}, err
	}
	mulN, err := strconv.Atoi(strings.TrimSpace(mul))
	if err != nil {
		return sample.Rereads{}, err
	}
	if absN < 0 || absN > 255 || mulN < 0 || mulN > 255 {
		return sample.Rereads{}, fmt.Errorf("abs,mul must each be 0..255, got %q", s)
	}
	return sample.Rereads{Abs: uint8(absN), Mul: uint8(mulN)}, nil
}

func parseCacheCodec(s string) (riprip.CacheCodec, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return riprip.CacheCodecNone, nil
	case "zstd":
		return riprip.CacheCodecZstd, nil
	case "lzma":
		return riprip.CacheCodecLZMA, nil
	default:
		return 0, fmt.Errorf("unknown codec %q (want none, zstd, or lzma)", s)
	}
}

// exitCode maps the controller's returned error onto a process exit
// status (spec §6.2, §7): 0 on success, 130 on user cancellation, 1 on
// any other error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, riprip.ErrUserCancelled):
		return 130
	default:
		fmt.Fprintf(os.Stderr, "riprip: %v\n", err)
		return 1
	}
}
