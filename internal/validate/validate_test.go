package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/ethos-finder/ethos/internal/provider"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.co", true},
		{"100%@example.org", true},
		{"@example.com", false},
		{"alice@example", false},
		{"alice@example.c", false},
		{"alice example@example.com", false},
		{"alice@@example.com", false},
		{"o'brien@example.com", true},
		{"jöhn@example.com", true},
		{"a!b@example.com", true},
		{"a@..com", false},
		{"a@-.com", false},
		{"a@example.com.", false},
		{"alice\t@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.in))
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+1 (415) 555-2671", true},
		{"4155552671", true},
		{"+44 20 7946 0958", true},
		{"123456", false},
		{"+12345", false},
		{"abc1234567", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Phone(tt.in))
		})
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"alice", true},
		{"@alice", true},
		{"jane.doe_99-x", true},
		{strings.Repeat("a", 30), true},
		{strings.Repeat("a", 31), false},
		{"@", false},
		{"", false},
		{"bad handle", false},
		{"emoji😀", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Handle(tt.in))
		})
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"sub.example.co.uk", true},
		{"xn--bcher-kva.example", true},
		{"a-b.io", true},
		{"example", false},
		{"-bad.com", false},
		{"bad-.com", false},
		{"example.c0m", false},
		{"example..com", false},
		{".com", false},
		{strings.Repeat("a", 64) + ".com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.in))
		})
	}
}

func TestQueryDispatchesByKind(t *testing.T) {
	assert.True(t, Query(provider.KindEmail, "a@example.com"))
	assert.True(t, Query(provider.KindPhone, "+14155552671"))
	assert.True(t, Query(provider.KindHandle, "@alice"))
	assert.True(t, Query(provider.KindDomain, "example.com"))
	assert.False(t, Query(provider.Kind("ip"), "10.0.0.1"))
}

func TestValidatorsAreTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		for _, k := range provider.Kinds {
			_ = Query(k, s)
		}
	})
}

func TestHandleLeadingAtIsIgnored(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.StringMatching(`[a-zA-Z0-9._-]{1,30}`).Draw(t, "handle")
		if !Handle(h) || !Handle("@"+h) {
			t.Fatalf("handle %q rejected", h)
		}
	})
}

func TestPhoneSeparatorsIgnored(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		digits := rapid.StringMatching(`[0-9]{7,15}`).Draw(t, "digits")
		sep := rapid.SampledFrom([]string{" ", "-", "(", ")"}).Draw(t, "sep")
		spaced := strings.Join(strings.Split(digits, ""), sep)
		if !Phone("+" + spaced) {
			t.Fatalf("phone %q rejected", "+"+spaced)
		}
	})
}

func TestEmailNeedsLocalPart(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		domain := rapid.StringMatching(`[a-z]{1,10}\.[a-z]{2,5}`).Draw(t, "domain")
		if Email("@" + domain) {
			t.Fatalf("empty local part accepted for %q", domain)
		}
		if !Email("x@" + domain) {
			t.Fatalf("x@%s rejected", domain)
		}
	})
}
