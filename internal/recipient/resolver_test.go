package recipient

import (
	"strings"
	"testing"
)

type fakeDirectory map[string]bool

func (d fakeDirectory) IsMailingList(name string) bool { return d[name] }

func TestResolveMailRow(t *testing.T) {
	r := NewResolver(nil)

	res := r.Resolve(KindCc, "Bob <bob@x.test>, carol@x.test")
	if len(res.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(res.Addresses))
	}
	if res.Addresses[0].Full != "Bob <bob@x.test>" {
		t.Errorf("first full = %q", res.Addresses[0].Full)
	}
	if res.Addresses[0].Label != "Bob" {
		t.Errorf("first label = %q", res.Addresses[0].Label)
	}
	if res.Addresses[1].Full != "carol@x.test" || res.Addresses[1].Label != "carol@x.test" {
		t.Errorf("second = %+v", res.Addresses[1])
	}
	if res.Remainder != "" {
		t.Errorf("unexpected remainder %q", res.Remainder)
	}
}

func TestResolveKeepsMalformedText(t *testing.T) {
	r := NewResolver(nil)

	res := r.Resolve(KindTo, "dave@x.test, not an address, eve@")
	if len(res.Addresses) != 1 || res.Addresses[0].Full != "dave@x.test" {
		t.Fatalf("unexpected addresses %+v", res.Addresses)
	}
	if res.Remainder != "not an address, eve@" {
		t.Fatalf("remainder = %q", res.Remainder)
	}
}

func TestResolveQuotedDisplayName(t *testing.T) {
	r := NewResolver(nil)

	res := r.Resolve(KindTo, `"Doe, John" <john@x.test>; jane@x.test`)
	if len(res.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %+v", res.Addresses)
	}
	if got := res.Addresses[0].Full; got != `"Doe, John" <john@x.test>` {
		t.Errorf("full = %q", got)
	}
	if got := res.Addresses[0].Label; got != "Doe, John" {
		t.Errorf("label = %q", got)
	}
}

func TestResolveMailingList(t *testing.T) {
	r := NewResolver(fakeDirectory{"Team": true})

	res := r.Resolve(KindTo, "Team, Strangers")
	if len(res.Addresses) != 1 {
		t.Fatalf("expected the list to resolve, got %+v", res.Addresses)
	}
	if res.Addresses[0].Full != "Team <Team>" || res.Addresses[0].Label != "Team" {
		t.Errorf("list address = %+v", res.Addresses[0])
	}
	if res.Remainder != "Strangers" {
		t.Errorf("remainder = %q", res.Remainder)
	}

	again := r.Resolve(KindTo, res.Addresses[0].Full)
	if len(again.Addresses) != 1 || again.Addresses[0].Full != "Team <Team>" {
		t.Errorf("list did not survive a round trip: %+v", again)
	}
}

func TestResolveNewsAndOtherRows(t *testing.T) {
	r := NewResolver(nil)

	news := r.Resolve(KindNewsgroups, "comp.lang.go, alt.test ,")
	if len(news.Addresses) != 2 || news.Addresses[1].Full != "alt.test" {
		t.Fatalf("news = %+v", news.Addresses)
	}

	other := r.Resolve(OtherKind("Organization"), "  Foo, Inc.  ")
	if len(other.Addresses) != 1 || other.Addresses[0].Full != "Foo, Inc." {
		t.Fatalf("other = %+v", other.Addresses)
	}

	if got := r.Resolve(OtherKind("X-Test"), "   "); len(got.Addresses) != 0 {
		t.Fatalf("blank other header produced %+v", got.Addresses)
	}
}

func TestResolveRoundTrip(t *testing.T) {
	r := NewResolver(nil)
	inputs := []string{
		"Bob <bob@x.test>, carol@x.test",
		`"O'Brien, Pat" <pat@x.test>,  zed@x.test ,amy@x.test`,
		"Pat Q. Public <pq@x.test>",
	}

	for _, in := range inputs {
		first := r.Resolve(KindTo, in)
		var fulls []string
		for _, a := range first.Addresses {
			fulls = append(fulls, a.Full)
		}
		joined := strings.Join(fulls, ",")

		second := r.Resolve(KindTo, joined)
		if len(second.Addresses) != len(first.Addresses) {
			t.Fatalf("%q: count changed %d -> %d", in, len(first.Addresses), len(second.Addresses))
		}
		for i := range first.Addresses {
			if first.Addresses[i] != second.Addresses[i] {
				t.Errorf("%q: address %d changed %+v -> %+v", in, i, first.Addresses[i], second.Addresses[i])
			}
		}
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"bob@x.test", true},
		{"Bob <bob@x.test>", true},
		{"bob@x.test,", true},
		{"a@x.test, b@x.test", true},
		{"bob", false},
		{"", false},
		{"  , ", false},
		{"a@x.test, nope", false},
	}

	for _, tt := range tests {
		if got := IsValidAddress(tt.in); got != tt.want {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitAddresses(t *testing.T) {
	got := SplitAddresses(`a@x.test, "B, b" <b@x.test> (comment, here); <c@x.test>`)
	want := []string{"a@x.test", `"B, b" <b@x.test> (comment, here)`, "<c@x.test>"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"To", KindTo},
		{"reply-to", KindReplyTo},
		{"Followup-To", KindFollowupTo},
		{"other:X-Priority", OtherKind("X-Priority")},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "from", "other:"} {
		if _, err := ParseKind(bad); err == nil {
			t.Errorf("ParseKind(%q) succeeded", bad)
		}
	}

	if h := OtherKind("X-Priority").HeaderName(); h != "X-Priority" {
		t.Errorf("HeaderName = %q", h)
	}
}
