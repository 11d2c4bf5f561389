// Package dispatch routes native messaging requests to the signer and builds
// the responses.
//
// The dispatcher is the single place where errors leave the process. Every
// failure, including panics, becomes one of two fixed response payloads, so
// no error text derived from key material can reach the browser.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joncooperworks/nostrhost/crypto"
	"github.com/joncooperworks/nostrhost/crypto/keystore"
	"github.com/joncooperworks/nostrhost/nativemsg"
)

const (
	// ErrorType is the response type of every failed request.
	ErrorType = "error"
	// UnknownTypeMessage is the result of a request with an unknown type.
	UnknownTypeMessage = "unknown type"
	// FailureMessage is the result of every other failed request.
	FailureMessage = "request failed"
)

// Keyer performs key operations for an account.
// *signer.Signer is the production implementation.
type Keyer interface {
	GetPublicKey(ctx context.Context, account keystore.Account) (string, error)
	SignEvent(ctx context.Context, account keystore.Account, evt *crypto.Event) error
	Encrypt(ctx context.Context, account keystore.Account, peerPubKey, plaintext string) (string, error)
	Decrypt(ctx context.Context, account keystore.Account, peerPubKey, envelope string) (string, error)
}

// handlerFunc runs one decoded operation.
type handlerFunc func(ctx context.Context, account keystore.Account, op Operation) (any, error)

// Dispatcher turns request frames into response frames.
type Dispatcher struct {
	keyer    Keyer
	logger   *zap.Logger
	handlers map[string]handlerFunc
}

// New creates a Dispatcher. A nil logger discards logs.
func New(keyer Keyer, logger *zap.Logger) (*Dispatcher, error) {
	if keyer == nil {
		return nil, errors.New("keyer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{keyer: keyer, logger: logger}
	d.handlers = map[string]handlerFunc{
		TypeGetPublicKey: d.getPublicKey,
		TypeSignEvent:    d.signEvent,
		TypeGetRelays:    d.getRelays,
		TypeEncrypt:      d.encrypt,
		TypeDecrypt:      d.decrypt,
	}
	return d, nil
}

// Handle processes one request frame and always returns a response.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) (resp *Response) {
	start := time.Now()
	var (
		id      string
		reqType string
		account keystore.Account
	)

	defer func() {
		if r := recover(); r != nil {
			// The panic value is not logged; it may reference key material.
			d.logger.Error("recovered from panic while handling request",
				zap.String("request_id", id),
				zap.String("type", reqType),
				zap.String("panic_type", fmt.Sprintf("%T", r)),
			)
			resp = failure(id, FailureMessage)
		}
	}()

	req, err := ParseRequest(raw)
	if err != nil {
		if req != nil {
			id, reqType = req.ID, req.Type
		} else {
			id = probeID(raw)
		}
		d.logResult(id, reqType, account, start, err)
		return failure(id, FailureMessage)
	}
	id, reqType, account = req.ID, req.Type, req.Account

	op, err := req.Operation()
	if err != nil {
		d.logResult(id, reqType, account, start, err)
		if errors.Is(err, ErrUnknownOperation) {
			return failure(id, UnknownTypeMessage)
		}
		return failure(id, FailureMessage)
	}

	if op.NeedsAccount() && account == "" {
		d.logResult(id, reqType, account, start, keystore.ErrConfiguration)
		return failure(id, FailureMessage)
	}

	result, err := d.handlers[op.Type()](ctx, account, op)
	d.logResult(id, reqType, account, start, err)
	if err != nil {
		return failure(id, FailureMessage)
	}

	return &Response{
		ID:     id,
		Type:   reverse(reqType),
		Result: result,
	}
}

func (d *Dispatcher) getPublicKey(ctx context.Context, account keystore.Account, _ Operation) (any, error) {
	return d.keyer.GetPublicKey(ctx, account)
}

func (d *Dispatcher) signEvent(ctx context.Context, account keystore.Account, op Operation) (any, error) {
	evt := op.(SignEvent).Event
	if err := d.keyer.SignEvent(ctx, account, evt); err != nil {
		return nil, err
	}
	return evt, nil
}

func (d *Dispatcher) getRelays(context.Context, keystore.Account, Operation) (any, error) {
	return map[string]any{}, nil
}

func (d *Dispatcher) encrypt(ctx context.Context, account keystore.Account, op Operation) (any, error) {
	enc := op.(Encrypt)
	return d.keyer.Encrypt(ctx, account, enc.PubKey, enc.Plaintext)
}

func (d *Dispatcher) decrypt(ctx context.Context, account keystore.Account, op Operation) (any, error) {
	dec := op.(Decrypt)
	return d.keyer.Decrypt(ctx, account, dec.PubKey, dec.Ciphertext)
}

func (d *Dispatcher) logResult(id, reqType string, account keystore.Account, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("request_id", id),
		zap.String("type", reqType),
		zap.String("account", string(account)),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		d.logger.Warn("request failed", append(fields,
			zap.String("outcome", "error"),
			zap.String("error_kind", ErrorKind(err)),
		)...)
		return
	}
	d.logger.Info("request handled", append(fields, zap.String("outcome", "ok"))...)
}

func failure(id, message string) *Response {
	return &Response{ID: id, Type: ErrorType, Result: message}
}

// ErrorKind classifies err by its sentinel for logging. Error text is never used.
func ErrorKind(err error) string {
	kinds := []struct {
		err  error
		kind string
	}{
		{keystore.ErrConfiguration, "configuration"},
		{keystore.ErrKeychainAccess, "keychain_access"},
		{keystore.ErrKeyNotFound, "key_not_found"},
		{keystore.ErrInvalidKeyLength, "invalid_key_length"},
		{keystore.ErrKeyDecode, "key_decode"},
		{crypto.ErrMalformedEnvelope, "malformed_envelope"},
		{crypto.ErrInternalCrypto, "internal_crypto"},
		{ErrUnknownOperation, "unknown_operation"},
		{ErrInvalidRequest, "invalid_request"},
		{nativemsg.ErrFrameTooLarge, "frame_too_large"},
		{context.Canceled, "canceled"},
		{context.DeadlineExceeded, "deadline_exceeded"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
