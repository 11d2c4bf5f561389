package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joncooperworks/nostrhost/crypto"
	"github.com/joncooperworks/nostrhost/crypto/keystore"
)

// Operation tags understood by the host.
const (
	TypeGetPublicKey = "getPublicKey"
	TypeSignEvent    = "signEvent"
	TypeGetRelays    = "getRelays"
	TypeEncrypt      = "nip04.encrypt"
	TypeDecrypt      = "nip04.decrypt"
)

var (
	// ErrUnknownOperation is returned for request types the host does not implement.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrInvalidRequest is returned when a request or its argument fails schema validation.
	ErrInvalidRequest = errors.New("invalid request")
)

// Request is one inbound message.
type Request struct {
	ID      string           `json:"id"`
	Type    string           `json:"type"`
	Arg     json.RawMessage  `json:"arg,omitempty"`
	Account keystore.Account `json:"account"`
}

// Response is one outbound message. Type is the reversed request type on
// success and "error" on failure.
type Response struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Result any    `json:"result"`
}

// Operation is the decoded, validated argument of a request.
// Each request type has exactly one Operation variant.
type Operation interface {
	// Type returns the request type tag the operation was decoded from.
	Type() string
	// NeedsAccount reports whether the operation reads a secret.
	NeedsAccount() bool
}

// GetPublicKey asks for the account's public key.
type GetPublicKey struct{}

// SignEvent asks for an event to be completed and signed.
type SignEvent struct {
	Event *crypto.Event `json:"event"`
}

// GetRelays asks for the relay policy. The host has none.
type GetRelays struct{}

// Encrypt asks for a NIP-04 encryption to PubKey.
type Encrypt struct {
	PubKey    string `json:"pubkey"`
	Plaintext string `json:"plaintext"`
}

// Decrypt asks for a NIP-04 decryption of a message from PubKey.
type Decrypt struct {
	PubKey     string `json:"pubkey"`
	Ciphertext string `json:"ciphertext"`
}

func (GetPublicKey) Type() string { return TypeGetPublicKey }
func (SignEvent) Type() string    { return TypeSignEvent }
func (GetRelays) Type() string    { return TypeGetRelays }
func (Encrypt) Type() string      { return TypeEncrypt }
func (Decrypt) Type() string      { return TypeDecrypt }

func (GetPublicKey) NeedsAccount() bool { return true }
func (SignEvent) NeedsAccount() bool    { return true }
func (GetRelays) NeedsAccount() bool    { return false }
func (Encrypt) NeedsAccount() bool      { return true }
func (Decrypt) NeedsAccount() bool      { return true }

// ParseRequest decodes the request envelope. The argument is decoded later by
// Request.Operation once the type is known.
//
// The account is only decoded for known types, so a request with an unknown
// type parses whatever its account holds and is rejected by Operation.
// When the account fails to decode, the returned Request still carries the
// id and type alongside the error.
func ParseRequest(raw []byte) (*Request, error) {
	var env struct {
		ID      string          `json:"id"`
		Type    string          `json:"type"`
		Arg     json.RawMessage `json:"arg"`
		Account json.RawMessage `json:"account"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", ErrInvalidRequest)
	}

	req := &Request{ID: env.ID, Type: env.Type, Arg: env.Arg}
	if !knownType(env.Type) {
		return req, nil
	}
	if len(env.Account) > 0 && !bytes.Equal(env.Account, []byte("null")) {
		if err := json.Unmarshal(env.Account, &req.Account); err != nil {
			return req, fmt.Errorf("%w: account must be a string", ErrInvalidRequest)
		}
	}
	return req, nil
}

func knownType(typ string) bool {
	switch typ {
	case TypeGetPublicKey, TypeSignEvent, TypeGetRelays, TypeEncrypt, TypeDecrypt:
		return true
	}
	return false
}

// probeID extracts the correlation id from a message whose envelope did not
// decode, so that the error response can still be matched by the caller.
func probeID(raw []byte) string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(probe.ID, &id); err != nil {
		return ""
	}
	return id
}

// Operation decodes and validates the request argument for the request type.
// Unknown types return ErrUnknownOperation before the argument is looked at.
func (r *Request) Operation() (Operation, error) {
	switch r.Type {
	case TypeGetPublicKey:
		return GetPublicKey{}, nil
	case TypeGetRelays:
		return GetRelays{}, nil
	case TypeSignEvent:
		var op SignEvent
		if err := decodeArg(r.Type, r.Arg, &op); err != nil {
			return nil, err
		}
		if op.Event == nil {
			return nil, fmt.Errorf("%w: event is required", ErrInvalidRequest)
		}
		if err := op.Event.Validate(); err != nil {
			return nil, fmt.Errorf("%w: event %v", ErrInvalidRequest, err)
		}
		return op, nil
	case TypeEncrypt:
		var op Encrypt
		if err := decodeArg(r.Type, r.Arg, &op); err != nil {
			return nil, err
		}
		if err := checkPubKey(op.PubKey); err != nil {
			return nil, err
		}
		return op, nil
	case TypeDecrypt:
		var op Decrypt
		if err := decodeArg(r.Type, r.Arg, &op); err != nil {
			return nil, err
		}
		if err := checkPubKey(op.PubKey); err != nil {
			return nil, err
		}
		return op, nil
	default:
		return nil, ErrUnknownOperation
	}
}

// decodeArg validates arg against the schema for typ and decodes it into v.
func decodeArg(typ string, arg json.RawMessage, v any) error {
	if len(bytes.TrimSpace(arg)) == 0 || bytes.Equal(bytes.TrimSpace(arg), []byte("null")) {
		return fmt.Errorf("%w: arg is required", ErrInvalidRequest)
	}
	if err := validateArg(typ, arg); err != nil {
		return err
	}
	if err := json.Unmarshal(arg, v); err != nil {
		return fmt.Errorf("%w: malformed arg", ErrInvalidRequest)
	}
	return nil
}

func checkPubKey(pubkey string) error {
	if _, err := crypto.DecodePublicKey(pubkey); err != nil {
		return fmt.Errorf("%w: pubkey %v", ErrInvalidRequest, err)
	}
	return nil
}

// reverse returns s with its characters in reverse order.
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
