package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
)

var fallbackAdjectives = []string{"Brave", "Clever", "Witty", "Chill", "Loyal", "Zany", "Bright", "Gentle", "Bold", "Jolly"}

var fallbackNouns = []string{"Otter", "Falcon", "Lynx", "Moose", "Bear", "Rocket", "Wolf", "Candle", "Pine", "Tiger"}

const maxNameAttempts = 10

// wordSuggester produces candidate words for username generation.
// Implementations are best-effort: a false return means "use the local
// fallback", never an error the caller has to handle.
type wordSuggester interface {
	suggest() (string, bool)
}

// apiWordSuggester asks an external random-word service. Any failure,
// timeout, or unexpected response shape falls through to (_, false).
type apiWordSuggester struct {
	cfg    *Config
	client *http.Client
}

func newAPIWordSuggester(cfg *Config) *apiWordSuggester {
	return &apiWordSuggester{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.wordAPITimeout},
	}
}

func (s *apiWordSuggester) suggest() (string, bool) {
	req, err := http.NewRequest(http.MethodGet, s.cfg.wordAPIURL, nil)
	if err != nil {
		return "", false
	}
	if s.cfg.wordAPIKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.wordAPIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logf(s.cfg, "NAMES: word service unreachable: %v", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logf(s.cfg, "NAMES: word service returned %d", resp.StatusCode)
		return "", false
	}

	// The service wraps its result in a single-element list.
	var body struct {
		Word []string `json:"word"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Word) == 0 || body.Word[0] == "" {
		return "", false
	}

	return body.Word[0], true
}

// nameGenerator builds display names, preferring words from the
// suggester and falling back to the fixed local lists.
type nameGenerator struct {
	suggester wordSuggester
}

// generate returns a name for which taken() reports false. After a
// bounded number of adjective+noun attempts it switches to numbered
// "CoolPanda" names, which always terminate since suffixes are
// unbounded.
func (g *nameGenerator) generate(taken func(string) bool) string {
	for i := 0; i < maxNameAttempts; i++ {
		name := g.candidate()
		if !taken(name) {
			return name
		}
	}

	for i := 1; ; i++ {
		name := fmt.Sprintf("CoolPanda%d", i)
		if !taken(name) {
			return name
		}
	}
}

// candidate builds one adjective+noun name, consulting the suggester
// once per slot.
func (g *nameGenerator) candidate() string {
	adj := fallbackAdjectives[rand.Intn(len(fallbackAdjectives))]
	noun := fallbackNouns[rand.Intn(len(fallbackNouns))]

	if g.suggester != nil {
		if w, ok := g.suggester.suggest(); ok {
			adj = w
		}
		if w, ok := g.suggester.suggest(); ok {
			noun = w
		}
	}

	return capitalize(adj) + capitalize(noun)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
