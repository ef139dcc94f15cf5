package atproto

import "testing"

func TestParseURI(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		wantErr    bool
		authority  string
		collection string
		rkey       string
	}{
		{
			name:       "card record",
			in:         "at://did:plc:abc123/app.tcg.card/3lsr7a722oq2g",
			authority:  "did:plc:abc123",
			collection: "app.tcg.card",
			rkey:       "3lsr7a722oq2g",
		},
		{
			name:       "follow record",
			in:         "at://did:plc:abc123/app.bsky.graph.follow/3lsr7a722oq2g",
			authority:  "did:plc:abc123",
			collection: "app.bsky.graph.follow",
			rkey:       "3lsr7a722oq2g",
		},
		{
			name:       "rkey with slash falls back to split",
			in:         "at://did:plc:abc123/app.tcg.card/odd/rkey",
			authority:  "did:plc:abc123",
			collection: "app.tcg.card",
			rkey:       "odd/rkey",
		},
		{name: "collection without dot", in: "at://did:plc:abc123/card/rk", wantErr: true},
		{name: "missing rkey", in: "at://did:plc:abc123/app.tcg.card", wantErr: true},
		{name: "not an at-uri", in: "https://example.com/x", wantErr: true},
		{name: "missing scheme", in: "did:plc:abc123/app.tcg.card/3lsr7a722oq2g", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := ParseURI(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %+v", tc.in, u)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI(%q): %v", tc.in, err)
			}
			if u.Authority != tc.authority || u.Collection != tc.collection || u.RKey != tc.rkey {
				t.Fatalf("ParseURI(%q) = %+v", tc.in, u)
			}
		})
	}
}

func TestValidNSID(t *testing.T) {
	valid := []string{"app.tcg.card", "app.bsky.feed.post", "a.b"}
	for _, s := range valid {
		if !ValidNSID(s) {
			t.Fatalf("expected %q to be a valid NSID", s)
		}
	}
	invalid := []string{"card", "", ".card", "app..card", "app.tcg.card/x"}
	for _, s := range invalid {
		if ValidNSID(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestURIRoundTrip(t *testing.T) {
	in := "at://did:plc:abc123/app.tcg.card/3lsr7a722oq2g"
	u, err := ParseURI(in)
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if got := u.String(); got != in {
		t.Fatalf("round trip: got %q want %q", got, in)
	}
}
