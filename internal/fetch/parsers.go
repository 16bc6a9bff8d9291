package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/cycleglobe/internal/cycle"
)

// Parser turns a raw JSON body into a partial cycle state (IsDay and Expiry).
// now is the poll instant, used by parsers that derive the phase themselves.
type Parser func(body []byte, now time.Time) (cycle.State, error)

// flexTime accepts RFC 3339 strings and unix-millisecond numbers.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(str, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return fmt.Errorf("bad timestamp %q: %w", str, err)
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp %s: %w", s, err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// cycleStatus is the flat {isDay, expiry} document.
type cycleStatus struct {
	IsDay  *bool    `json:"isDay"`
	Expiry flexTime `json:"expiry"`
}

func (c cycleStatus) state() (cycle.State, error) {
	if c.IsDay == nil {
		return cycle.State{}, errors.New("missing isDay")
	}
	if c.Expiry.IsZero() {
		return cycle.State{}, errors.New("missing expiry")
	}
	return cycle.State{IsDay: *c.IsDay, Expiry: c.Expiry.Time}, nil
}

// ParseCycleStatus reads a flat {"isDay": bool, "expiry": time} document,
// as served by the WarframeStat cetusCycle endpoint and by cycleglobe serve.
func ParseCycleStatus(body []byte, _ time.Time) (cycle.State, error) {
	var c cycleStatus
	if err := json.Unmarshal(body, &c); err != nil {
		return cycle.State{}, err
	}
	return c.state()
}

// ParseWorldSummary reads the platform summary document, where the cycle sits
// under "cetusCycle".
func ParseWorldSummary(body []byte, _ time.Time) (cycle.State, error) {
	var doc struct {
		CetusCycle *cycleStatus `json:"cetusCycle"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return cycle.State{}, err
	}
	if doc.CetusCycle == nil {
		return cycle.State{}, errors.New("missing cetusCycle")
	}
	return doc.CetusCycle.state()
}

// worldState is the subset of the official world state we read.
type worldState struct {
	SyndicateMissions []struct {
		Tag    string `json:"Tag"`
		Expiry struct {
			Date struct {
				NumberLong string `json:"$numberLong"`
			} `json:"$date"`
		} `json:"Expiry"`
	} `json:"SyndicateMissions"`
}

// CetusTag is the syndicate whose mission window tracks the cycle.
const CetusTag = "CetusSyndicate"

// WorldStateParser builds a parser for the nested mission-state document. The
// mission tagged tag expires at the end of a night of length night; the day
// is everything before that night starts.
func WorldStateParser(tag string, night time.Duration) Parser {
	return func(body []byte, now time.Time) (cycle.State, error) {
		var ws worldState
		if err := json.Unmarshal(body, &ws); err != nil {
			return cycle.State{}, err
		}

		for _, m := range ws.SyndicateMissions {
			if m.Tag != tag {
				continue
			}
			ms, err := strconv.ParseInt(m.Expiry.Date.NumberLong, 10, 64)
			if err != nil {
				return cycle.State{}, fmt.Errorf("bad %s expiry: %w", tag, err)
			}
			end := time.UnixMilli(ms).UTC()
			nightStart := end.Add(-night)

			switch {
			case now.Before(nightStart):
				return cycle.State{IsDay: true, Expiry: nightStart}, nil
			case now.Before(end):
				return cycle.State{IsDay: false, Expiry: end}, nil
			default:
				return cycle.State{}, fmt.Errorf("%s window ended at %s", tag, end.Format(time.RFC3339))
			}
		}
		return cycle.State{}, fmt.Errorf("no %s mission", tag)
	}
}

// ParseWorldState reads the official world state using the local cycle's
// night length.
var ParseWorldState = WorldStateParser(CetusTag, cycle.NightLength)
