package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/cycleglobe/internal/config"
	"github.com/abelbrown/cycleglobe/internal/cycle"
)

func runSources() {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print JSON instead of text")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	srcs := cfg.SourceConfigs()

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(srcs)
		return
	}

	fmt.Printf("Config: %s\n\n", config.ConfigPath())
	if cfg.Offline {
		fmt.Println("Offline: remote sources are skipped.")
	}
	for i, s := range srcs {
		kind := s.Kind
		if kind == "" {
			kind = "status"
		}
		fmt.Printf("%d. %-24s %-10s %s\n", i+1, truncate(s.Name, 24), kind, s.URL)
	}
	fmt.Printf("%d. %-24s %-10s %s\n", len(srcs)+1, cycle.LocalSource, "fallback", "(no network)")
}
