// Command chessplay-uci runs the chess engine as a UCI protocol
// process, reading commands from stdin and writing responses to stdout.
package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/hailam/chessplay/internal/config"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/logging"
	"github.com/hailam/chessplay/internal/storage"
	"github.com/hailam/chessplay/internal/uci"
)

func main() {
	fs := flag.NewFlagSet("chessplay-uci", flag.ExitOnError)
	getConfig := config.ParseFlags(fs)
	fs.Parse(os.Args[1:])
	cfg := getConfig()

	log := logging.Default()

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			log.Errorf("could not create CPU profile: %v", err)
		} else {
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Errorf("could not start CPU profile: %v", err)
			} else {
				defer pprof.StopCPUProfile()
				log.Infof("CPU profiling enabled, writing to %s", cfg.CPUProfile)
			}
		}
	}

	eng := engine.NewEngine(cfg.HashMB)

	if cfg.BookFile != "" {
		if err := eng.LoadBook(cfg.BookFile); err != nil {
			log.Warnf("opening book not loaded: %v", err)
		} else {
			log.Infof("opening book loaded from %s", cfg.BookFile)
		}
	}

	protocol := uci.New(eng)

	if store, err := storage.NewStorage(); err != nil {
		log.Warnf("search-log storage unavailable: %v", err)
	} else {
		defer store.Close()
		protocol.SetStorage(store)
	}

	protocol.Run()
}
