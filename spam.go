package main

import "regexp"

// Patterns covering the usual drive-by chat spam. Matching is
// case-insensitive and stops at the first hit.
var spamPatterns = []*regexp.Regexp{
	// commercial solicitation
	regexp.MustCompile(`(?i)buy now`),
	regexp.MustCompile(`(?i)free offer`),
	regexp.MustCompile(`(?i)limited time (deal|offer)`),
	regexp.MustCompile(`(?i)act now`),
	// urls
	regexp.MustCompile(`(?i)https?://`),
	regexp.MustCompile(`(?i)www\.[a-z0-9-]+\.[a-z]{2,}`),
	// gambling
	regexp.MustCompile(`(?i)online casino`),
	regexp.MustCompile(`(?i)free spins`),
	regexp.MustCompile(`(?i)sports betting`),
	// pharmaceuticals
	regexp.MustCompile(`(?i)viagra|cialis`),
	regexp.MustCompile(`(?i)cheap (pills|meds)`),
	// click-bait
	regexp.MustCompile(`(?i)click here`),
	regexp.MustCompile(`(?i)you won'?t believe`),
	regexp.MustCompile(`(?i)doctors hate`),
	// money-making schemes
	regexp.MustCompile(`(?i)make money fast`),
	regexp.MustCompile(`(?i)work from home`),
	regexp.MustCompile(`(?i)passive income`),
	regexp.MustCompile(`(?i)get rich quick`),
	// diet and supplements
	regexp.MustCompile(`(?i)lose weight`),
	regexp.MustCompile(`(?i)fat burner`),
	regexp.MustCompile(`(?i)miracle (diet|cure)`),
	// cryptocurrency
	regexp.MustCompile(`(?i)free (bitcoin|crypto)`),
	regexp.MustCompile(`(?i)crypto giveaway`),
	regexp.MustCompile(`(?i)pump and dump`),
}

// isSpam reports whether text matches any known spam pattern. Applied
// to plain chat only; recognized commands never reach it.
func isSpam(text string) bool {
	for _, p := range spamPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
