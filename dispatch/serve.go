package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/joncooperworks/nostrhost/nativemsg"
)

// Serve reads request frames from r and writes one response frame to w for
// each, strictly in order: a request is fully handled before the next frame
// is read.
//
// Serve returns nil when r reaches a clean end of stream, ctx.Err() when the
// context is canceled between requests, and an error when the stream breaks
// mid-frame or a response cannot be written. A bad request never stops it.
func (d *Dispatcher) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	fr := nativemsg.NewReader(r)
	fw := nativemsg.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := fr.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.logger.Info("input closed, stopping")
				return nil
			}
			if errors.Is(err, nativemsg.ErrFrameTooLarge) {
				d.logger.Warn("discarded oversized frame", zap.String("error_kind", ErrorKind(err)))
				if err := d.write(fw, failure("", FailureMessage)); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		if err := d.write(fw, d.Handle(ctx, payload)); err != nil {
			return err
		}
	}
}

// write encodes and sends resp. A response that cannot be encoded or is too
// large for the browser is replaced by the generic failure for the same id.
func (d *Dispatcher) write(fw *nativemsg.Writer, resp *Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		d.logger.Error("failed to encode response", zap.String("request_id", resp.ID))
		payload, _ = json.Marshal(failure(resp.ID, FailureMessage))
	}

	err = fw.WriteFrame(payload)
	if errors.Is(err, nativemsg.ErrFrameTooLarge) {
		d.logger.Warn("response too large for browser",
			zap.String("request_id", resp.ID),
			zap.Int("size", len(payload)),
		)
		payload, _ = json.Marshal(failure(resp.ID, FailureMessage))
		err = fw.WriteFrame(payload)
	}
	if err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
