package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gowebpki/jcs"
)

// Event is a NIP-01 event.
//
// ID and Sig are optional on input. Signing fills PubKey and ID when absent
// and always sets Sig.
type Event struct {
	ID        string     `json:"id,omitempty"`
	Sig       string     `json:"sig,omitempty"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	PubKey    string     `json:"pubkey"`
	Content   string     `json:"content"`
	CreatedAt int64      `json:"created_at"`

	// extra holds members the caller sent that are not NIP-01 fields. They are
	// written back unchanged and never take part in the id.
	extra map[string]json.RawMessage
}

// eventFields has Event's layout without its JSON methods.
type eventFields Event

var eventKeys = []string{"id", "sig", "kind", "tags", "pubkey", "content", "created_at"}

// UnmarshalJSON decodes the NIP-01 fields and keeps any other members.
func (e *Event) UnmarshalJSON(data []byte) error {
	var fields eventFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	for name := range members {
		if isEventKey(name) {
			delete(members, name)
		}
	}
	fields.extra = nil
	if len(members) > 0 {
		fields.extra = members
	}
	*e = Event(fields)
	return nil
}

// MarshalJSON encodes the NIP-01 fields followed by any members kept from
// decoding. NIP-01 fields win over kept members of the same name.
func (e Event) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(eventFields(e))
	if err != nil || len(e.extra) == 0 {
		return known, err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(known)+64))
	out.Write(known[:len(known)-1])
	names := make([]string, 0, len(e.extra))
	for name := range e.extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		out.WriteByte(',')
		out.Write(key)
		out.WriteByte(':')
		out.Write(e.extra[name])
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// isEventKey reports whether name decodes into a NIP-01 field. encoding/json
// matches member names case-insensitively.
func isEventKey(name string) bool {
	for _, key := range eventKeys {
		if strings.EqualFold(name, key) {
			return true
		}
	}
	return false
}

// Validate checks the structural constraints of an unsigned event.
func (e *Event) Validate() error {
	if e.Kind < 0 {
		return errors.New("kind must be non-negative")
	}
	if e.PubKey != "" {
		if err := checkHex(e.PubKey, PublicKeySize); err != nil {
			return fmt.Errorf("pubkey: %w", err)
		}
	}
	if e.ID != "" {
		if err := checkHex(e.ID, HashSize); err != nil {
			return fmt.Errorf("id: %w", err)
		}
	}
	return nil
}

// NormalizeTags replaces null tag lists with empty ones so that the event
// serializes as "tags":[] rather than "tags":null.
func (e *Event) NormalizeTags() {
	if e.Tags == nil {
		e.Tags = [][]string{}
	}
	for i, tag := range e.Tags {
		if tag == nil {
			e.Tags[i] = []string{}
		}
	}
}

// Serialize returns the canonical NIP-01 serialization
// [0,pubkey,created_at,kind,tags,content] without whitespace.
//
// Strings are escaped exactly as ECMAScript JSON.stringify escapes them
// (RFC 8785), which is what every other nostr implementation hashes.
func (e *Event) Serialize() ([]byte, error) {
	tags := e.Tags
	if tags == nil {
		tags = [][]string{}
	}
	normalized := make([][]string, len(tags))
	for i, tag := range tags {
		if tag == nil {
			tag = []string{}
		}
		normalized[i] = tag
	}

	raw, err := json.Marshal([]any{0, e.PubKey, e.CreatedAt, e.Kind, normalized, e.Content})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal event", ErrInternalCrypto)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to canonicalize event", ErrInternalCrypto)
	}
	return canonical, nil
}

// ComputeID returns the SHA-256 of the canonical serialization.
func (e *Event) ComputeID() ([HashSize]byte, error) {
	serialized, err := e.Serialize()
	if err != nil {
		return [HashSize]byte{}, err
	}
	return sha256.Sum256(serialized), nil
}

// CheckSignature verifies that ID matches the event contents and that Sig is
// a valid signature over ID by PubKey.
func (e *Event) CheckSignature() error {
	id, err := e.ComputeID()
	if err != nil {
		return err
	}
	if hex.EncodeToString(id[:]) != e.ID {
		return errors.New("event id does not match contents")
	}

	pub, err := decodeHex(e.PubKey, PublicKeySize)
	if err != nil {
		return fmt.Errorf("pubkey: %w", err)
	}
	sig, err := decodeHex(e.Sig, SignatureSize)
	if err != nil {
		return fmt.Errorf("sig: %w", err)
	}
	return Verify(pub, id[:], sig)
}

// DecodePublicKey parses a 64-character hex x-only public key.
func DecodePublicKey(s string) ([]byte, error) {
	return decodeHex(s, PublicKeySize)
}

func checkHex(s string, size int) error {
	_, err := decodeHex(s, size)
	return err
}

func decodeHex(s string, size int) ([]byte, error) {
	if len(s) != size*2 {
		return nil, fmt.Errorf("must be %d hex characters", size*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.New("must be hex encoded")
	}
	return b, nil
}
