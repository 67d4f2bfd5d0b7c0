package dcpool

import (
	"context"
	"fmt"

	"github.com/ankit-chaubey/layer/internal/handshake"
	"github.com/ankit-chaubey/layer/internal/mtproto/transport"
	"github.com/ankit-chaubey/layer/internal/session"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// encodable is satisfied by every handshake request value tl/handshake.go
// defines (ReqPQMulti, ReqDHParams, SetClientDHParams).
type encodable interface {
	Encode(w *tlcodec.Writer)
}

// RunHandshake drives the four-step DH exchange (spec §4.5) over conn using
// plaintext framing (spec §4.7), honoring ctx's deadline by closing conn if
// it expires before the exchange completes — conn.Recv has no context
// parameter of its own, so this is the only way to unblock it early.
func RunHandshake(ctx context.Context, conn transport.Transport) (*session.State, error) {
	type result struct {
		sess *session.State
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		sess, err := runHandshake(conn)
		resCh <- result{sess, err}
	}()

	select {
	case res := <-resCh:
		return res.sess, res.err
	case <-ctx.Done():
		conn.Close()
		<-resCh
		return nil, ctx.Err()
	}
}

func runHandshake(conn transport.Transport) (*session.State, error) {
	req1, s1, err := handshake.Step1()
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake step1: %w", err)
	}
	body, err := roundTrip(conn, req1)
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake step1 round trip: %w", err)
	}
	resPQ, err := tl.DecodeResPQ(tlcodec.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dcpool: decode res_pq: %w", err)
	}

	req2, s2, err := handshake.Step2(s1, resPQ)
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake step2: %w", err)
	}
	body, err = roundTrip(conn, req2)
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake step2 round trip: %w", err)
	}
	serverDHParams, err := tl.DecodeServerDHParams(tlcodec.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dcpool: decode server_DH_params: %w", err)
	}

	req3, s3, err := handshake.Step3(s2, serverDHParams)
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake step3: %w", err)
	}
	body, err = roundTrip(conn, req3)
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake step3 round trip: %w", err)
	}
	answer, err := tl.DecodeSetClientDHParamsAnswer(tlcodec.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dcpool: decode set_client_DH_params_answer: %w", err)
	}

	finished, err := handshake.Finish(s3, answer)
	if err != nil {
		return nil, fmt.Errorf("dcpool: handshake finish: %w", err)
	}

	return session.New(finished.AuthKey, finished.FirstSalt, finished.TimeOffset)
}

func roundTrip(conn transport.Transport, req encodable) ([]byte, error) {
	w := tlcodec.NewWriter(256)
	req.Encode(w)
	if err := conn.Send(session.PackPlaintext(w.Bytes())); err != nil {
		return nil, err
	}
	frame, err := conn.Recv()
	if err != nil {
		return nil, err
	}
	_, body, err := session.UnpackPlaintext(frame)
	return body, err
}
