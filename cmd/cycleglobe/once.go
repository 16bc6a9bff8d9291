package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/cycleglobe/internal/cycle"
)

// onceResult is the -json output of the once command.
type onceResult struct {
	IsDay     bool      `json:"isDay"`
	Phase     string    `json:"phase"`
	Expiry    time.Time `json:"expiry"`
	Source    string    `json:"source"`
	Countdown string    `json:"countdown"`
	FellBack  bool      `json:"fellBack"`
	PollID    string    `json:"pollId"`
	Attempts  []attempt `json:"attempts"`
}

type attempt struct {
	Source string  `json:"source"`
	OK     bool    `json:"ok"`
	Err    string  `json:"err,omitempty"`
	DurMs  float64 `json:"durMs"`
}

func runOnce() {
	fs := flag.NewFlagSet("once", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print JSON instead of text")
	offline := fs.Bool("offline", false, "Skip remote sources and use the local calculation")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	if *offline {
		cfg.Offline = true
	}
	rt := setup(cfg)
	defer rt.Close()

	rep := rt.resolver.ResolveReport(context.Background())
	now := time.Now()
	st := rep.State

	res := onceResult{
		IsDay:     st.IsDay,
		Phase:     cycle.PhaseName(st.IsDay),
		Expiry:    st.Expiry,
		Source:    st.Source,
		Countdown: cycle.Countdown(st.Remaining(now)),
		FellBack:  rep.FellBack,
		PollID:    rep.PollID,
	}
	for _, a := range rep.Attempts {
		at := attempt{
			Source: a.Source,
			OK:     a.Err == nil,
			DurMs:  float64(a.Dur.Microseconds()) / 1000,
		}
		if a.Err != nil {
			at.Err = a.Err.Error()
		}
		res.Attempts = append(res.Attempts, at)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
		return
	}

	fmt.Printf("Current Phase:  %s\n", res.Phase)
	fmt.Printf("Next Change In: %s\n", res.Countdown)
	fmt.Printf("Source:         %s\n", res.Source)
	fmt.Printf("Expiry:         %s\n", st.Expiry.Local().Format("3:04:05 PM"))
	for _, a := range res.Attempts {
		status := "ok"
		if !a.OK {
			status = truncate(a.Err, 60)
		}
		fmt.Printf("  %-24s %6.1fms  %s\n", a.Source, a.DurMs, status)
	}
}
