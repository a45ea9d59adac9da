package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSpam(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "plain greeting", text: "hello everyone", want: false},
		{name: "commercial solicitation", text: "buy now, free offer!!!", want: true},
		{name: "case insensitive", text: "BUY NOW while it lasts", want: true},
		{name: "http url", text: "check http://example.com", want: true},
		{name: "https url", text: "check https://example.com", want: true},
		{name: "bare www url", text: "visit www.totally-legit.biz", want: true},
		{name: "gambling", text: "best ONLINE CASINO bonuses", want: true},
		{name: "pharma", text: "cheap pills no prescription", want: true},
		{name: "click bait", text: "you won't believe what happened", want: true},
		{name: "money scheme", text: "make money fast with this trick", want: true},
		{name: "diet", text: "lose weight in 3 days", want: true},
		{name: "crypto", text: "free bitcoin for everyone", want: true},
		{name: "movie talk", text: "the casino scene in that movie was great", want: false},
		{name: "empty", text: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSpam(tt.text))
		})
	}
}
