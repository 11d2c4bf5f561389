package crypto

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"
)

func helloEvent() *Event {
	return &Event{
		Kind:      1,
		Tags:      [][]string{},
		PubKey:    testPubHex,
		Content:   "hello",
		CreatedAt: 1700000000,
	}
}

func TestEvent_Serialize(t *testing.T) {
	got, err := helloEvent().Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	want := `[0,"` + testPubHex + `",1700000000,1,[],"hello"]`
	if string(got) != want {
		t.Errorf("Serialize() = %s, want %s", got, want)
	}
}

func TestEvent_SerializeNilTags(t *testing.T) {
	evt := helloEvent()
	evt.Tags = nil
	got, err := evt.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !strings.Contains(string(got), ",[],") {
		t.Errorf("Serialize() = %s, want nil tags serialized as []", got)
	}

	evt.Tags = [][]string{nil}
	got, err = evt.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !strings.Contains(string(got), ",[[]],") {
		t.Errorf("Serialize() = %s, want nil tag serialized as []", got)
	}
}

func TestEvent_ComputeID(t *testing.T) {
	id, err := helloEvent().ComputeID()
	if err != nil {
		t.Fatalf("ComputeID() error = %v", err)
	}
	if got := hex.EncodeToString(id[:]); got != helloEventID {
		t.Errorf("ComputeID() = %s, want %s", got, helloEventID)
	}
}

func TestEvent_ComputeIDEscaping(t *testing.T) {
	evt := &Event{
		Kind: 1,
		Tags: [][]string{
			{"e", "abc"},
			{"p", testPubHex, "wss://relay.example.com"},
		},
		PubKey:    testPubHex,
		Content:   "a\"b\\c\nd<e>&f\u2028é\u0001\t",
		CreatedAt: 1700000000,
	}

	serialized, err := evt.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	for _, fragment := range []string{`a\"b\\c\nd<e>&f`, "\u2028é", `\u0001\t"]`} {
		if !strings.Contains(string(serialized), fragment) {
			t.Errorf("Serialize() = %s, missing %q", serialized, fragment)
		}
	}

	id, err := evt.ComputeID()
	if err != nil {
		t.Fatalf("ComputeID() error = %v", err)
	}
	want := "3004c11e0fe0842ef0f6c356b15fdeadac0bfbdbd7daa912a25e7c4eec931c47"
	if got := hex.EncodeToString(id[:]); got != want {
		t.Errorf("ComputeID() = %s, want %s", got, want)
	}
}

func TestEvent_ComputeIDSensitivity(t *testing.T) {
	base, err := helloEvent().ComputeID()
	if err != nil {
		t.Fatalf("ComputeID() error = %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*Event)
	}{
		{"content", func(e *Event) { e.Content = "hello!" }},
		{"created_at", func(e *Event) { e.CreatedAt++ }},
		{"kind", func(e *Event) { e.Kind = 7 }},
		{"tags", func(e *Event) { e.Tags = [][]string{{"t", "nostr"}} }},
		{"pubkey", func(e *Event) { e.PubKey = threePubHex }},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			evt := helloEvent()
			m.mutate(evt)
			id, err := evt.ComputeID()
			if err != nil {
				t.Fatalf("ComputeID() error = %v", err)
			}
			if id == base {
				t.Errorf("ComputeID() unchanged after mutating %s", m.name)
			}
		})
	}
}

func TestEvent_CheckSignature(t *testing.T) {
	sk := mustHex(t, testSecHex)
	evt := helloEvent()
	id, err := evt.ComputeID()
	if err != nil {
		t.Fatalf("ComputeID() error = %v", err)
	}
	sig, err := Sign(sk, id[:])
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	evt.ID = hex.EncodeToString(id[:])
	evt.Sig = hex.EncodeToString(sig[:])

	if err := evt.CheckSignature(); err != nil {
		t.Errorf("CheckSignature() error = %v", err)
	}

	tampered := *evt
	tampered.Content = "goodbye"
	if err := tampered.CheckSignature(); err == nil {
		t.Error("CheckSignature() on tampered content error = nil, want error")
	}

	badSig := *evt
	badSig.Sig = strings.Repeat("0", 128)
	if err := badSig.CheckSignature(); err == nil {
		t.Error("CheckSignature() with zero signature error = nil, want error")
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		evt     Event
		wantErr bool
	}{
		{"minimal", Event{Kind: 1}, false},
		{"with pubkey", Event{Kind: 1, PubKey: testPubHex}, false},
		{"negative kind", Event{Kind: -1}, true},
		{"short pubkey", Event{Kind: 1, PubKey: "abcd"}, true},
		{"non-hex pubkey", Event{Kind: 1, PubKey: strings.Repeat("z", 64)}, true},
		{"bad id", Event{Kind: 1, ID: "xyz"}, true},
		{"valid id", Event{Kind: 1, ID: helloEventID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.evt.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvent_JSONKeepsUnknownMembers(t *testing.T) {
	input := `{"kind":1,"content":"hello","created_at":1700000000,"tags":[],` +
		`"relays":["wss://relay.example.com"],"meta":{"client":"x","n":1}}`

	var evt Event
	if err := json.Unmarshal([]byte(input), &evt); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if evt.Kind != 1 || evt.Content != "hello" {
		t.Errorf("Unmarshal() = kind %d content %q, want 1 hello", evt.Kind, evt.Content)
	}

	id, err := evt.ComputeID()
	if err != nil {
		t.Fatalf("ComputeID() error = %v", err)
	}
	plain := helloEvent()
	plain.PubKey = ""
	want, _ := plain.ComputeID()
	if id != want {
		t.Error("ComputeID() changed because of unknown members")
	}

	evt.Sig = strings.Repeat("a", 128)
	out, err := json.Marshal(&evt)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("Marshal() produced invalid JSON %s: %v", out, err)
	}
	if string(got["relays"]) != `["wss://relay.example.com"]` {
		t.Errorf("relays = %s, want it kept", got["relays"])
	}
	if string(got["meta"]) != `{"client":"x","n":1}` {
		t.Errorf("meta = %s, want it kept", got["meta"])
	}
	if string(got["sig"]) != `"`+evt.Sig+`"` {
		t.Errorf("sig = %s, want the signature", got["sig"])
	}
	for _, name := range []string{"Kind", "CREATED_AT", "PubKey"} {
		if !isEventKey(name) {
			t.Errorf("isEventKey(%q) = false, want true", name)
		}
	}
	if string(got["kind"]) != "1" {
		t.Errorf("kind = %s, want 1", got["kind"])
	}
}

func TestEvent_JSONWithoutUnknownMembers(t *testing.T) {
	out, err := json.Marshal(helloEvent())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"kind":1,"tags":[],"pubkey":"` + testPubHex + `","content":"hello","created_at":1700000000}`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}
