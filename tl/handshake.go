// Package tl holds the hand-authored subset of Telegram's generated TL
// schema types this client needs: the plaintext handshake RPCs (spec §4.4/
// §4.5), the core service/update/message constructors used once a session
// is encrypted, and the higher-level account/messaging functions named by
// the client surface. A full `.tl` schema has on the order of a thousand
// constructors; this package carries the representative slice the
// operations in this repository actually invoke, generated by hand in the
// shape internal/tlgen would otherwise produce.
package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the plaintext handshake (spec §4.4/§4.5). These are
// Telegram's own published schema IDs, not derived.
const (
	idReqPQMulti            uint32 = 0xbe7e8ef1
	idResPQ                  uint32 = 0x05162463
	idPQInnerData            uint32 = 0x83c95aec
	idReqDHParams            uint32 = 0xd712e4be
	idServerDHParamsFail     uint32 = 0x79cb045d
	idServerDHParamsOk       uint32 = 0xd0e8075c
	idServerDHInnerData      uint32 = 0xb5890dba
	idClientDHInnerData      uint32 = 0x6643b654
	idSetClientDHParams      uint32 = 0xf5045f1f
	idDHGenOk                uint32 = 0x3bcbf734
	idDHGenRetry             uint32 = 0x46dc1fb9
	idDHGenFail              uint32 = 0xa69dae02
)

// ReqPQMulti is the first message of the handshake.
type ReqPQMulti struct {
	Nonce [16]byte
}

// Encode implements the request side of req_pq_multi.
func (r ReqPQMulti) Encode(w *tlcodec.Writer) {
	w.PutUint32(idReqPQMulti)
	w.PutInt128(r.Nonce)
}

// ResPQ is the server's response to ReqPQMulti.
type ResPQ struct {
	Nonce                       [16]byte
	ServerNonce                 [16]byte
	PQ                          []byte
	ServerPublicKeyFingerprints []int64
}

// DecodeResPQ reads a boxed resPQ constructor.
func DecodeResPQ(r *tlcodec.Reader) (ResPQ, error) {
	id, err := r.Uint32()
	if err != nil {
		return ResPQ{}, err
	}
	if id != idResPQ {
		return ResPQ{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v ResPQ
	if v.Nonce, err = r.Int128(); err != nil {
		return ResPQ{}, err
	}
	if v.ServerNonce, err = r.Int128(); err != nil {
		return ResPQ{}, err
	}
	if v.PQ, err = r.Bytes(); err != nil {
		return ResPQ{}, err
	}
	n, err := r.VectorHeader()
	if err != nil {
		return ResPQ{}, err
	}
	v.ServerPublicKeyFingerprints = make([]int64, n)
	for i := range v.ServerPublicKeyFingerprints {
		fp, err := r.Int64()
		if err != nil {
			return ResPQ{}, err
		}
		v.ServerPublicKeyFingerprints[i] = fp
	}
	return v, nil
}

// PQInnerData is the plaintext wrapped and RSA-encrypted inside
// ReqDHParams.EncryptedData.
type PQInnerData struct {
	PQ          []byte
	P           []byte
	Q           []byte
	Nonce       [16]byte
	ServerNonce [16]byte
	NewNonce    [32]byte
}

// Encode serializes p_q_inner_data.
func (d PQInnerData) Encode(w *tlcodec.Writer) {
	w.PutUint32(idPQInnerData)
	w.PutBytes(d.PQ)
	w.PutBytes(d.P)
	w.PutBytes(d.Q)
	w.PutInt128(d.Nonce)
	w.PutInt128(d.ServerNonce)
	w.PutInt256(d.NewNonce)
}

// ReqDHParams is the second handshake request.
type ReqDHParams struct {
	Nonce                 [16]byte
	ServerNonce           [16]byte
	P                     []byte
	Q                     []byte
	PublicKeyFingerprint  int64
	EncryptedData         []byte
}

// Encode serializes req_DH_params.
func (r ReqDHParams) Encode(w *tlcodec.Writer) {
	w.PutUint32(idReqDHParams)
	w.PutInt128(r.Nonce)
	w.PutInt128(r.ServerNonce)
	w.PutBytes(r.P)
	w.PutBytes(r.Q)
	w.PutInt64(r.PublicKeyFingerprint)
	w.PutBytes(r.EncryptedData)
}

// ServerDHParams is the server's response to ReqDHParams: either a success
// carrying the encrypted DH answer, or a failure.
type ServerDHParams struct {
	Fail *ServerDHParamsFail
	Ok   *ServerDHParamsOk
}

// ServerDHParamsFail is server_DH_params_fail.
type ServerDHParamsFail struct {
	Nonce         [16]byte
	ServerNonce   [16]byte
	NewNonceHash  [16]byte
}

// ServerDHParamsOk is server_DH_params_ok.
type ServerDHParamsOk struct {
	Nonce            [16]byte
	ServerNonce      [16]byte
	EncryptedAnswer  []byte
}

// DecodeServerDHParams reads either variant of Server_DH_Params.
func DecodeServerDHParams(r *tlcodec.Reader) (ServerDHParams, error) {
	id, err := r.Uint32()
	if err != nil {
		return ServerDHParams{}, err
	}
	switch id {
	case idServerDHParamsFail:
		var f ServerDHParamsFail
		if f.Nonce, err = r.Int128(); err != nil {
			return ServerDHParams{}, err
		}
		if f.ServerNonce, err = r.Int128(); err != nil {
			return ServerDHParams{}, err
		}
		if f.NewNonceHash, err = r.Int128(); err != nil {
			return ServerDHParams{}, err
		}
		return ServerDHParams{Fail: &f}, nil
	case idServerDHParamsOk:
		var o ServerDHParamsOk
		if o.Nonce, err = r.Int128(); err != nil {
			return ServerDHParams{}, err
		}
		if o.ServerNonce, err = r.Int128(); err != nil {
			return ServerDHParams{}, err
		}
		if o.EncryptedAnswer, err = r.Bytes(); err != nil {
			return ServerDHParams{}, err
		}
		return ServerDHParams{Ok: &o}, nil
	default:
		return ServerDHParams{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

// ServerDHInnerData is server_DH_inner_data, found inside
// ServerDHParamsOk.EncryptedAnswer once decrypted.
type ServerDHInnerData struct {
	Nonce       [16]byte
	ServerNonce [16]byte
	G           int32
	DHPrime     []byte
	GA          []byte
	ServerTime  int32
}

// DecodeServerDHInnerData reads a boxed server_DH_inner_data constructor.
func DecodeServerDHInnerData(r *tlcodec.Reader) (ServerDHInnerData, error) {
	id, err := r.Uint32()
	if err != nil {
		return ServerDHInnerData{}, err
	}
	if id != idServerDHInnerData {
		return ServerDHInnerData{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v ServerDHInnerData
	if v.Nonce, err = r.Int128(); err != nil {
		return ServerDHInnerData{}, err
	}
	if v.ServerNonce, err = r.Int128(); err != nil {
		return ServerDHInnerData{}, err
	}
	if v.G, err = r.Int32(); err != nil {
		return ServerDHInnerData{}, err
	}
	if v.DHPrime, err = r.Bytes(); err != nil {
		return ServerDHInnerData{}, err
	}
	if v.GA, err = r.Bytes(); err != nil {
		return ServerDHInnerData{}, err
	}
	if v.ServerTime, err = r.Int32(); err != nil {
		return ServerDHInnerData{}, err
	}
	return v, nil
}

// ClientDHInnerData is client_DH_inner_data, encrypted and sent as
// SetClientDHParams.EncryptedData.
type ClientDHInnerData struct {
	Nonce       [16]byte
	ServerNonce [16]byte
	RetryID     int64
	GB          []byte
}

// Encode serializes client_DH_inner_data.
func (d ClientDHInnerData) Encode(w *tlcodec.Writer) {
	w.PutUint32(idClientDHInnerData)
	w.PutInt128(d.Nonce)
	w.PutInt128(d.ServerNonce)
	w.PutInt64(d.RetryID)
	w.PutBytes(d.GB)
}

// SetClientDHParams is the final handshake request.
type SetClientDHParams struct {
	Nonce         [16]byte
	ServerNonce   [16]byte
	EncryptedData []byte
}

// Encode serializes set_client_DH_params.
func (s SetClientDHParams) Encode(w *tlcodec.Writer) {
	w.PutUint32(idSetClientDHParams)
	w.PutInt128(s.Nonce)
	w.PutInt128(s.ServerNonce)
	w.PutBytes(s.EncryptedData)
}

// SetClientDHParamsAnswer is Set_client_DH_params_answer: the server's
// verdict on the client's chosen DH secret.
type SetClientDHParamsAnswer struct {
	Ok     *DHGenOk
	Retry  *DHGenRetry
	Fail   *DHGenFail
}

// DHGenOk is dh_gen_ok.
type DHGenOk struct {
	Nonce          [16]byte
	ServerNonce    [16]byte
	NewNonceHash1  [16]byte
}

// DHGenRetry is dh_gen_retry.
type DHGenRetry struct {
	Nonce          [16]byte
	ServerNonce    [16]byte
	NewNonceHash2  [16]byte
}

// DHGenFail is dh_gen_fail.
type DHGenFail struct {
	Nonce          [16]byte
	ServerNonce    [16]byte
	NewNonceHash3  [16]byte
}

// DecodeSetClientDHParamsAnswer reads any of the three dh_gen_* variants.
func DecodeSetClientDHParamsAnswer(r *tlcodec.Reader) (SetClientDHParamsAnswer, error) {
	id, err := r.Uint32()
	if err != nil {
		return SetClientDHParamsAnswer{}, err
	}
	switch id {
	case idDHGenOk:
		var v DHGenOk
		if v.Nonce, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		if v.ServerNonce, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		if v.NewNonceHash1, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		return SetClientDHParamsAnswer{Ok: &v}, nil
	case idDHGenRetry:
		var v DHGenRetry
		if v.Nonce, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		if v.ServerNonce, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		if v.NewNonceHash2, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		return SetClientDHParamsAnswer{Retry: &v}, nil
	case idDHGenFail:
		var v DHGenFail
		if v.Nonce, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		if v.ServerNonce, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		if v.NewNonceHash3, err = r.Int128(); err != nil {
			return SetClientDHParamsAnswer{}, err
		}
		return SetClientDHParamsAnswer{Fail: &v}, nil
	default:
		return SetClientDHParamsAnswer{}, tlcodec.NewUnexpectedConstructor(id)
	}
}
