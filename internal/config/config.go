// Package config holds the engine's process-level configuration,
// populated from command-line flags the way cmd/chessplay-uci's
// teacher counterpart parses its own flags: no config-file library,
// just the standard flag package plus a handful of env var overrides
// for headless/CI invocations.
package config

import (
	"flag"
	"os"
	"strconv"
)

// EngineConfig mirrors the options a UCI "setoption" command would
// set, so a process can be launched pre-configured without needing a
// round trip through the UCI handshake.
type EngineConfig struct {
	HashMB       int // transposition table size in MB
	Threads      int // accepted for UCI-client compatibility; search is single-threaded
	MoveOverhead int // milliseconds reserved against clock-read/move-send latency
	BookFile     string
	CPUProfile   string
}

// DefaultEngineConfig returns the configuration used when no flags or
// environment overrides are present.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HashMB:       64,
		Threads:      1,
		MoveOverhead: 30,
	}
}

// ParseFlags registers EngineConfig fields on fs and returns a function
// that yields the populated config after fs.Parse has run. Environment
// variables (CHESSPLAY_HASH_MB, CHESSPLAY_BOOK_FILE) override the flag
// default when the flag itself was not set, for headless deployments
// that don't control the process's argv.
func ParseFlags(fs *flag.FlagSet) func() EngineConfig {
	def := DefaultEngineConfig()

	hashMB := fs.Int("hash", def.HashMB, "transposition table size in MB")
	threads := fs.Int("threads", def.Threads, "search threads (engine is single-threaded; accepted for UCI compatibility)")
	moveOverhead := fs.Int("moveoverhead", def.MoveOverhead, "milliseconds reserved against clock latency")
	bookFile := fs.String("book", def.BookFile, "path to a Polyglot opening book")
	cpuProfile := fs.String("cpuprofile", def.CPUProfile, "write CPU profile to file")

	return func() EngineConfig {
		cfg := EngineConfig{
			HashMB:       *hashMB,
			Threads:      *threads,
			MoveOverhead: *moveOverhead,
			BookFile:     *bookFile,
			CPUProfile:   *cpuProfile,
		}
		if cfg.BookFile == "" {
			cfg.BookFile = os.Getenv("CHESSPLAY_BOOK_FILE")
		}
		hashSet := false
		fs.Visit(func(f *flag.Flag) { hashSet = hashSet || f.Name == "hash" })
		if v := os.Getenv("CHESSPLAY_HASH_MB"); v != "" && !hashSet {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.HashMB = n
			}
		}
		if cfg.CPUProfile == "" {
			cfg.CPUProfile = os.Getenv("CPUPROFILE")
		}
		return cfg
	}
}
