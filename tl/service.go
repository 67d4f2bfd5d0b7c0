package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the service layer: the envelope wrappers and
// session-management constructors exchanged once a session is encrypted
// (spec §4.6/§4.7). These are Telegram's own published schema IDs.
const (
	idMsgContainer        uint32 = 0x73f1f8dc
	idRPCResult           uint32 = 0xf35c6d01
	idRPCError            uint32 = 0x2144ca19
	idGzipPacked          uint32 = 0x3072cfa1
	idMsgsAck             uint32 = 0x62d6b459
	idBadServerSalt       uint32 = 0xedab447b
	idBadMsgNotification  uint32 = 0xa7eff811
	idNewSessionCreated   uint32 = 0x9ec20908
	idPing                uint32 = 0x7abe77ec
	idPingDelayDisconnect uint32 = 0xf3427b8c
	idPong                uint32 = 0x347773c5
	idDestroySession      uint32 = 0xe7512126
	idDestroySessionOk    uint32 = 0xe22045fc
	idDestroySessionNone  uint32 = 0x62d350c9
	idMsgsStateReq        uint32 = 0xda69fb52
	idMsgsStateInfo       uint32 = 0x04deb57d
	idMsgResendReq        uint32 = 0x7d861a08
	idFutureSalt          uint32 = 0x0949d9dc
	idFutureSalts         uint32 = 0xae500895
	idGetFutureSalts      uint32 = 0xb921bd04
)

// Message is one envelope entry inside a MsgContainer: a message id, a
// sequence number, and the boxed body bytes (still TL-encoded, not yet
// interpreted).
type Message struct {
	MsgID int64
	SeqNo int32
	Body  []byte
}

// MsgContainer is msg_container, a batch of independently-acked messages
// sent or received together (spec §4.7).
type MsgContainer struct {
	Messages []Message
}

// Encode serializes msg_container.
func (c MsgContainer) Encode(w *tlcodec.Writer) {
	w.PutUint32(idMsgContainer)
	w.PutInt32(int32(len(c.Messages)))
	for _, m := range c.Messages {
		w.PutInt64(m.MsgID)
		w.PutInt32(m.SeqNo)
		w.PutInt32(int32(len(m.Body)))
		w.PutRaw(m.Body)
	}
}

// DecodeMsgContainer reads a boxed msg_container constructor. Each
// contained message's body is a raw byte slice aliasing the reader's
// buffer; callers decode it with a fresh *tlcodec.Reader.
func DecodeMsgContainer(r *tlcodec.Reader) (MsgContainer, error) {
	id, err := r.Uint32()
	if err != nil {
		return MsgContainer{}, err
	}
	if id != idMsgContainer {
		return MsgContainer{}, tlcodec.NewUnexpectedConstructor(id)
	}
	n, err := r.Int32()
	if err != nil {
		return MsgContainer{}, err
	}
	msgs := make([]Message, n)
	for i := range msgs {
		msgID, err := r.Int64()
		if err != nil {
			return MsgContainer{}, err
		}
		seqNo, err := r.Int32()
		if err != nil {
			return MsgContainer{}, err
		}
		length, err := r.Int32()
		if err != nil {
			return MsgContainer{}, err
		}
		body := make([]byte, length)
		raw, err := r.Take(int(length))
		if err != nil {
			return MsgContainer{}, err
		}
		copy(body, raw)
		msgs[i] = Message{MsgID: msgID, SeqNo: seqNo, Body: body}
	}
	return MsgContainer{Messages: msgs}, nil
}

// RPCResult is rpc_result: the answer to an RPC identified by ReqMsgID. The
// Result bytes are the still-boxed response body (possibly gzip_packed).
type RPCResult struct {
	ReqMsgID int64
	Result   []byte
}

// DecodeRPCResult reads a boxed rpc_result constructor. Result aliases the
// remainder of the reader's buffer from this point forward, since
// rpc_result has no length prefix of its own — the caller must know where
// the envelope ends (its own container/transport framing).
func DecodeRPCResult(r *tlcodec.Reader) (RPCResult, error) {
	id, err := r.Uint32()
	if err != nil {
		return RPCResult{}, err
	}
	if id != idRPCResult {
		return RPCResult{}, tlcodec.NewUnexpectedConstructor(id)
	}
	reqMsgID, err := r.Int64()
	if err != nil {
		return RPCResult{}, err
	}
	return RPCResult{ReqMsgID: reqMsgID, Result: r.Rest()}, nil
}

// RPCError is rpc_error: a server-reported failure for an RPC invocation
// (spec §4.8). ErrorMessage often carries a suffix like "_42" encoding a
// numeric argument (e.g. FLOOD_WAIT_42); parsing that belongs to the rpc
// package, not here.
type RPCError struct {
	ErrorCode    int32
	ErrorMessage string
}

// DecodeRPCError reads a boxed rpc_error constructor.
func DecodeRPCError(r *tlcodec.Reader) (RPCError, error) {
	id, err := r.Uint32()
	if err != nil {
		return RPCError{}, err
	}
	if id != idRPCError {
		return RPCError{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v RPCError
	if v.ErrorCode, err = r.Int32(); err != nil {
		return RPCError{}, err
	}
	if v.ErrorMessage, err = r.String(); err != nil {
		return RPCError{}, err
	}
	return v, nil
}

// GzipPacked is gzip_packed: a zlib/gzip-compressed TL object, transparently
// unwrapped before the body underneath is interpreted.
type GzipPacked struct {
	PackedData []byte
}

// DecodeGzipPacked reads a boxed gzip_packed constructor.
func DecodeGzipPacked(r *tlcodec.Reader) (GzipPacked, error) {
	id, err := r.Uint32()
	if err != nil {
		return GzipPacked{}, err
	}
	if id != idGzipPacked {
		return GzipPacked{}, tlcodec.NewUnexpectedConstructor(id)
	}
	data, err := r.Bytes()
	if err != nil {
		return GzipPacked{}, err
	}
	return GzipPacked{PackedData: data}, nil
}

// Encode serializes gzip_packed.
func (g GzipPacked) Encode(w *tlcodec.Writer) {
	w.PutUint32(idGzipPacked)
	w.PutBytes(g.PackedData)
}

// MsgsAck is msgs_ack, acknowledging receipt of one or more message ids.
type MsgsAck struct {
	MsgIDs []int64
}

// Encode serializes msgs_ack.
func (m MsgsAck) Encode(w *tlcodec.Writer) {
	w.PutUint32(idMsgsAck)
	w.VectorHeader(len(m.MsgIDs))
	for _, id := range m.MsgIDs {
		w.PutInt64(id)
	}
}

// DecodeMsgsAck reads a boxed msgs_ack constructor.
func DecodeMsgsAck(r *tlcodec.Reader) (MsgsAck, error) {
	id, err := r.Uint32()
	if err != nil {
		return MsgsAck{}, err
	}
	if id != idMsgsAck {
		return MsgsAck{}, tlcodec.NewUnexpectedConstructor(id)
	}
	n, err := r.VectorHeader()
	if err != nil {
		return MsgsAck{}, err
	}
	ids := make([]int64, n)
	for i := range ids {
		if ids[i], err = r.Int64(); err != nil {
			return MsgsAck{}, err
		}
	}
	return MsgsAck{MsgIDs: ids}, nil
}

// BadServerSalt is bad_server_salt: the server rejecting a message because
// our salt is stale, carrying the salt we must adopt (spec §4.6).
type BadServerSalt struct {
	BadMsgID    int64
	BadMsgSeqNo int32
	ErrorCode   int32
	NewServerSalt int64
}

// DecodeBadServerSalt reads a boxed bad_server_salt constructor.
func DecodeBadServerSalt(r *tlcodec.Reader) (BadServerSalt, error) {
	id, err := r.Uint32()
	if err != nil {
		return BadServerSalt{}, err
	}
	if id != idBadServerSalt {
		return BadServerSalt{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v BadServerSalt
	if v.BadMsgID, err = r.Int64(); err != nil {
		return BadServerSalt{}, err
	}
	if v.BadMsgSeqNo, err = r.Int32(); err != nil {
		return BadServerSalt{}, err
	}
	if v.ErrorCode, err = r.Int32(); err != nil {
		return BadServerSalt{}, err
	}
	if v.NewServerSalt, err = r.Int64(); err != nil {
		return BadServerSalt{}, err
	}
	return v, nil
}

// BadMsgNotification is bad_msg_notification: the server rejecting a
// message for reasons other than a stale salt (bad msg_id, seq_no, or
// time skew beyond tolerance).
type BadMsgNotification struct {
	BadMsgID    int64
	BadMsgSeqNo int32
	ErrorCode   int32
}

// DecodeBadMsgNotification reads a boxed bad_msg_notification constructor.
func DecodeBadMsgNotification(r *tlcodec.Reader) (BadMsgNotification, error) {
	id, err := r.Uint32()
	if err != nil {
		return BadMsgNotification{}, err
	}
	if id != idBadMsgNotification {
		return BadMsgNotification{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v BadMsgNotification
	if v.BadMsgID, err = r.Int64(); err != nil {
		return BadMsgNotification{}, err
	}
	if v.BadMsgSeqNo, err = r.Int32(); err != nil {
		return BadMsgNotification{}, err
	}
	if v.ErrorCode, err = r.Int32(); err != nil {
		return BadMsgNotification{}, err
	}
	return v, nil
}

// NewSessionCreated is new_session_created: the server's notice that a
// fresh session (new unique_id/server_salt) has replaced the prior one.
type NewSessionCreated struct {
	FirstMsgID int64
	UniqueID   int64
	ServerSalt int64
}

// DecodeNewSessionCreated reads a boxed new_session_created constructor.
func DecodeNewSessionCreated(r *tlcodec.Reader) (NewSessionCreated, error) {
	id, err := r.Uint32()
	if err != nil {
		return NewSessionCreated{}, err
	}
	if id != idNewSessionCreated {
		return NewSessionCreated{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v NewSessionCreated
	if v.FirstMsgID, err = r.Int64(); err != nil {
		return NewSessionCreated{}, err
	}
	if v.UniqueID, err = r.Int64(); err != nil {
		return NewSessionCreated{}, err
	}
	if v.ServerSalt, err = r.Int64(); err != nil {
		return NewSessionCreated{}, err
	}
	return v, nil
}

// Ping is ping, a liveness probe the client sends.
type Ping struct {
	PingID int64
}

// Encode serializes ping.
func (p Ping) Encode(w *tlcodec.Writer) {
	w.PutUint32(idPing)
	w.PutInt64(p.PingID)
}

// Pong is pong, the server's reply to Ping.
type Pong struct {
	MsgID  int64
	PingID int64
}

// DecodePong reads a boxed pong constructor.
func DecodePong(r *tlcodec.Reader) (Pong, error) {
	id, err := r.Uint32()
	if err != nil {
		return Pong{}, err
	}
	if id != idPong {
		return Pong{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v Pong
	if v.MsgID, err = r.Int64(); err != nil {
		return Pong{}, err
	}
	if v.PingID, err = r.Int64(); err != nil {
		return Pong{}, err
	}
	return v, nil
}

// DestroySession is destroy_session, asking the server to discard session
// state identified by SessionID.
type DestroySession struct {
	SessionID int64
}

// Encode serializes destroy_session.
func (d DestroySession) Encode(w *tlcodec.Writer) {
	w.PutUint32(idDestroySession)
	w.PutInt64(d.SessionID)
}

// DestroySessionRes is the server's answer to destroy_session: either
// destroy_session_ok or destroy_session_none.
type DestroySessionRes struct {
	SessionID int64
	Ok        bool
}

// DecodeDestroySessionRes reads either destroy_session_ok or
// destroy_session_none.
func DecodeDestroySessionRes(r *tlcodec.Reader) (DestroySessionRes, error) {
	id, err := r.Uint32()
	if err != nil {
		return DestroySessionRes{}, err
	}
	switch id {
	case idDestroySessionOk:
		sid, err := r.Int64()
		if err != nil {
			return DestroySessionRes{}, err
		}
		return DestroySessionRes{SessionID: sid, Ok: true}, nil
	case idDestroySessionNone:
		sid, err := r.Int64()
		if err != nil {
			return DestroySessionRes{}, err
		}
		return DestroySessionRes{SessionID: sid, Ok: false}, nil
	default:
		return DestroySessionRes{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

// PeekID reads the leading boxed constructor id of buf without consuming
// any bytes, for dispatch code (internal/rpc's envelope unwrapper) that
// must choose which Decode* function to call before calling it.
func PeekID(buf []byte) (uint32, error) {
	r := tlcodec.NewReader(buf)
	return r.Uint32()
}

// Exported envelope constructor ids, for internal/rpc's dispatch switch
// (spec §4.8). These mirror the unexported ids above one-for-one; kept as
// a separate exported block rather than exporting the originals so the
// wire-format constants used for encode/decode inside this package stay
// unexported while the dispatch-only identity they represent is visible
// to callers that only ever compare against them, never encode/decode
// with them directly.
const (
	IDMsgContainer       = idMsgContainer
	IDRPCResult          = idRPCResult
	IDRPCError           = idRPCError
	IDGzipPacked         = idGzipPacked
	IDMsgsAck            = idMsgsAck
	IDBadServerSalt      = idBadServerSalt
	IDBadMsgNotification = idBadMsgNotification
	IDNewSessionCreated  = idNewSessionCreated
	IDPing               = idPing
	IDPong               = idPong
)
