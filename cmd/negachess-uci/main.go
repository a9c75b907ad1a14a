package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/negachess/internal/engine"
	"github.com/hailam/negachess/internal/storage"
	"github.com/hailam/negachess/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	depth      = flag.Int("depth", engine.DefaultDepth, "default search depth")
	strict     = flag.Bool("strict", false, "filter pinned-piece moves even when not in check")
	dbDir      = flag.String("db", "", `database directory for preferences and analysis ("default" for the user data dir)`)
)

func main() {
	flag.Parse()
	log.SetPrefix("negachess-uci: ")

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine()
	protocol := uci.New(eng, os.Stdout, os.Stderr)

	strictLegality := *strict
	if *dbDir != "" {
		store, err := openStore(*dbDir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
		protocol.SetStore(store)

		// Saved preferences seed the defaults; explicit flags win.
		prefs, err := store.LoadPreferences()
		if err != nil {
			log.Printf("Warning: preferences not loaded: %v", err)
		} else {
			eng.SetDepth(prefs.Depth)
			strictLegality = prefs.StrictLegality
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "depth":
			eng.SetDepth(*depth)
		case "strict":
			strictLegality = *strict
		}
	})
	protocol.SetStrictLegality(strictLegality)

	if err := protocol.Run(os.Stdin); err != nil {
		log.Printf("reading commands: %v", err)
	}
}

func openStore(dir string) (*storage.Storage, error) {
	if dir == "default" {
		dir = ""
	}
	return storage.Open(dir)
}
