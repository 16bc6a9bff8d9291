package fetch

import "fmt"

// Source is one provider of cycle readings, tried in priority order.
// Immutable after construction.
type Source struct {
	Name   string // display name, becomes State.Source on success
	URL    string
	Parser Parser
}

// Parser kinds accepted in configuration.
const (
	KindStatus     = "status"     // flat {isDay, expiry}
	KindSummary    = "summary"    // {cetusCycle: {isDay, expiry}}
	KindWorldState = "worldstate" // SyndicateMissions / $numberLong
)

// SourceConfig is the configurable form of a Source.
type SourceConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// DefaultSources returns the built-in sources, highest priority first.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "WarframeStat API", URL: "https://api.warframestat.us/pc/cetusCycle", Kind: KindStatus},
		{Name: "WarframeStat Summary", URL: "https://api.warframestat.us/pc/?language=en", Kind: KindSummary},
		{Name: "Official World State", URL: "https://content.warframe.com/dynamic/worldState.php", Kind: KindWorldState},
	}
}

// ParserByKind maps a configured kind to its Parser.
func ParserByKind(kind string) (Parser, error) {
	switch kind {
	case KindStatus, "":
		return ParseCycleStatus, nil
	case KindSummary:
		return ParseWorldSummary, nil
	case KindWorldState:
		return ParseWorldState, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

// BuildSources turns configs into Sources, preserving order.
func BuildSources(cfgs []SourceConfig) ([]Source, error) {
	sources := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		if c.Name == "" || c.URL == "" {
			return nil, fmt.Errorf("source needs a name and url: %+v", c)
		}
		p, err := ParserByKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", c.Name, err)
		}
		sources = append(sources, Source{Name: c.Name, URL: c.URL, Parser: p})
	}
	return sources, nil
}
