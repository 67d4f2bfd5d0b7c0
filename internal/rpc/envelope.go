package rpc

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// maxEnvelopeDepth bounds the container/gzip recursion the unwrapper will
// follow, guarding against a malicious or buggy peer nesting envelopes
// without bound.
const maxEnvelopeDepth = 16

// Unwrap decodes one decrypted message body, recursing through
// msg_container and gzip_packed as needed, and dispatches every leaf
// envelope per spec §4.8's table: rpc_result/rpc_error are delivered to
// the caller registered under the matching request id; updates go to that
// caller when one waits on their id (an rpc_result answered with Updates)
// and to the Router's UpdateSink otherwise; housekeeping envelopes (ping,
// pong, msgs_ack, new_session_created, bad_msg_notification) are ignored,
// no ack is sent; bad_server_salt adopts the new salt; anything else is treated as a bare RPC reply addressed by topMsgID
// (a msg_container entry carries its own id per element, so recursive
// calls pass that element's id instead).
func (r *Router) Unwrap(topMsgID int64, body []byte) error {
	return r.unwrap(topMsgID, body, 0)
}

func (r *Router) unwrap(topMsgID int64, body []byte, depth int) error {
	if depth > maxEnvelopeDepth {
		return fmt.Errorf("rpc: envelope nesting exceeds %d levels", maxEnvelopeDepth)
	}

	id, err := tl.PeekID(body)
	if err != nil {
		return fmt.Errorf("rpc: peek envelope id: %w", err)
	}

	switch id {
	case tl.IDMsgContainer:
		c, err := tl.DecodeMsgContainer(tlcodec.NewReader(body))
		if err != nil {
			return fmt.Errorf("rpc: decode msg_container: %w", err)
		}
		for _, m := range c.Messages {
			if err := r.unwrap(m.MsgID, m.Body, depth+1); err != nil {
				r.logger.Warn("envelope: element of msg_container failed to decode", "msg_id", m.MsgID, "error", err)
			}
		}
		return nil

	case tl.IDGzipPacked:
		g, err := tl.DecodeGzipPacked(tlcodec.NewReader(body))
		if err != nil {
			return fmt.Errorf("rpc: decode gzip_packed: %w", err)
		}
		inner, err := decompress(g.PackedData)
		if err != nil {
			return fmt.Errorf("rpc: decompress gzip_packed: %w", err)
		}
		return r.unwrap(topMsgID, inner, depth+1)

	case tl.IDRPCResult:
		res, err := tl.DecodeRPCResult(tlcodec.NewReader(body))
		if err != nil {
			return fmt.Errorf("rpc: decode rpc_result: %w", err)
		}
		return r.unwrap(res.ReqMsgID, res.Result, depth+1)

	case tl.IDRPCError:
		rpcErr, err := tl.DecodeRPCError(tlcodec.NewReader(body))
		if err != nil {
			return fmt.Errorf("rpc: decode rpc_error: %w", err)
		}
		parsed := ParseError(rpcErr.ErrorCode, rpcErr.ErrorMessage)
		if r.metrics != nil {
			r.metrics.RecordRPCError(parsed.Code, parsed.Name)
		}
		r.deliver(topMsgID, Result{Err: parsed})
		return nil

	case tl.IDBadServerSalt:
		bss, err := tl.DecodeBadServerSalt(tlcodec.NewReader(body))
		if err != nil {
			return fmt.Errorf("rpc: decode bad_server_salt: %w", err)
		}
		if r.sess != nil {
			r.sess.SetSalt(bss.NewServerSalt)
		}
		return nil

	case tl.IDBadMsgNotification, tl.IDNewSessionCreated, tl.IDMsgsAck, tl.IDPing, tl.IDPong:
		return nil // housekeeping only, spec §4.8

	case tl.IDUpdateShort, tl.IDUpdateShortMessage, tl.IDUpdateShortSentMessage,
		tl.IDUpdatesCombined, tl.IDUpdatesTop, tl.IDUpdatesTooLong:
		if r.deliver(topMsgID, Result{Payload: body}) {
			return nil
		}
		if r.sink != nil {
			r.sink.HandleRawUpdate(body)
		}
		return nil

	default:
		// Anything else is a bare RPC reply: either the direct payload of
		// an rpc_result, or — for calls whose schema return type is a
		// boxed Updates — the server answering with an update frame in
		// lieu of a serialized result (spec §4.8). Either way it belongs
		// to the caller waiting on topMsgID.
		if r.deliver(topMsgID, Result{Payload: body}) {
			return nil
		}
		// No caller is waiting: either a stray result, or an update
		// frame whose constructor id this switch doesn't special-case
		// (e.g. a future top-level Updates variant). Offer it to the
		// sink as a last resort so the update engine's own decoder can
		// decide whether it recognizes the shape.
		if r.sink != nil {
			r.sink.HandleRawUpdate(body)
		}
		return nil
	}
}

// decompress tries zlib first (the encoding MTProto's gzip_packed
// actually uses in practice) and falls back to gzip, since spec §4.8
// names both as acceptable.
func decompress(data []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err == nil {
			return out, nil
		}
	}
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("neither zlib nor gzip: %w", err)
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
