package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "sentences",
			in:   "The lease ends in May. Notice is required. ",
			want: "The lease ends in May.\n\nNotice is required.",
		},
		{
			name: "bullets",
			in:   "Options: • mediate • litigate",
			want: "Options:\n• mediate\n• litigate",
		},
		{
			name: "numbered",
			in:   "Steps: 1. File the notice. 2. Wait 30 days.",
			want: "Steps:\n1. File the notice.\n\n2. Wait 30 days.",
		},
		{
			name: "years are sentence ends",
			in:   "It was decided in 2023. The appeal failed.",
			want: "It was decided in 2023.\n\nThe appeal failed.",
		},
		{
			name: "links heading",
			in:   "See below.Links: https://example.org/a",
			want: "See below.\n\n**Links:**\nhttps://example.org/a",
		},
		{
			name: "dash list",
			in:   "Documents: - lease - receipts",
			want: "Documents:\n- lease\n- receipts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatResponse(tt.in))
		})
	}
}

func TestFormatResponseIdempotent(t *testing.T) {
	inputs := []string{
		"The lease ends in May. Notice is required. • one • two - three 1. a 2. b Links: https://x.org",
		"Already formatted.\n\nSecond line.\n\n**Links:**\nhttps://x.org",
		"•• double bullets. And 10. item",
		"",
	}
	for _, in := range inputs {
		once := FormatResponse(in)
		assert.Equal(t, once, FormatResponse(once), "input %q", in)
	}
}

func TestSummarizeShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "Short reply.", Summarize("Short reply.", 500))
	assert.Equal(t, "", Summarize("", 500))
}

func TestSummarizeLongText(t *testing.T) {
	sentences := []string{
		"The tenant must give notice before leaving the premises.",
		"Weather was pleasant on the day of signing.",
		"Notice periods for a tenant are set by the tenancy agreement.",
		"Lunch was served afterwards.",
		"A landlord may keep the deposit when notice is not given by the tenant.",
		"Several people attended.",
		"The court held that the tenant breached the notice clause.",
		"The hearing room was small.",
		"Costs follow the event in tenancy disputes of this kind.",
	}
	text := strings.Repeat(strings.Join(sentences, " ")+" ", 3)

	got := Summarize(text, 500)
	assert.True(t, strings.HasPrefix(got, "Summary:\n\n"), got)
	assert.LessOrEqual(t, len(got), 500)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "."))
}

func TestSummarizeKeepsSentenceOrder(t *testing.T) {
	text := "Alpha tenant notice rules apply here. Beta tenant notice is due. Gamma lunch. Delta tenant notice again. Epsilon dessert was served late today. Zeta tenant notice final."
	got := Summarize(text, 500)
	body := strings.TrimPrefix(got, "Summary:\n\n")

	last := -1
	for _, s := range splitSentences(body) {
		idx := strings.Index(text, s)
		assert.Greater(t, idx, last, "sentence %q out of order", s)
		last = idx
	}
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "Hello world this is ...", Ellipsize("Hello world this is a long message", 20))
	assert.Equal(t, "short", Ellipsize("short", 20))
	assert.Equal(t, "ñññ...", Ellipsize("ññññ", 3))
}
