// Package session implements the per-connection MTProto session state
// (spec §3 "Session State", §4.7 "Plaintext and encrypted session"): the
// auth key, session id, salt, time offset, and the message-id/seq-no
// counters, plus the pack/unpack routines that frame a call body for the
// wire and recover one from an incoming frame.
//
// A State is created fresh on every new connection even when the auth key
// is reused (spec §3: "session_id changes on every new connection"); it is
// the single mutable object the writer and reader sides of one connection
// share, guarded by its own mutex (spec §5 "Shared resources").
package session

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ankit-chaubey/layer/internal/crypto"
)

// Sentinel errors returned while unpacking an incoming frame.
var (
	// ErrSessionMismatch is returned when a decrypted frame's session_id
	// does not match this State's own id — a misrouted or replayed frame
	// (spec §4.7, §8 "Session framing").
	ErrSessionMismatch = errors.New("session: session_id mismatch")
	// ErrShortPlaintext is returned when a buffer is too small to hold the
	// fixed plaintext header.
	ErrShortPlaintext = errors.New("session: buffer shorter than plaintext header")
	// ErrBodyLengthMismatch is returned when the decoded body_len field
	// does not match the remaining buffer length.
	ErrBodyLengthMismatch = errors.New("session: body_len does not match remaining buffer")
)

const (
	plaintextHeaderLen = 8 + 8 + 4 // zero auth_key_id + msg_id + body_len
	encryptedHeaderLen = 8 + 8 + 8 + 4 + 4
)

// State is one connection's mutable MTProto session (spec §3).
type State struct {
	mu sync.Mutex

	authKey    crypto.AuthKey
	sessionID  int64
	salt       int64
	timeOffset int32

	lastMsgID int64
	seqNo     int32 // counts content-related messages; wire seq_no = 2*seqNo(+1)
}

// New creates a fresh session bound to authKey, with a freshly randomized
// session id (spec §3: "session_id: 64-bit random"). salt and timeOffset
// normally come from a completed handshake (handshake.Finished) or from a
// persisted session record (spec §6).
func New(authKey crypto.AuthKey, salt int64, timeOffset int32) (*State, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("session: rand.Read: %w", err)
	}
	return &State{
		authKey:    authKey,
		sessionID:  int64(binary.LittleEndian.Uint64(b[:])),
		salt:       salt,
		timeOffset: timeOffset,
	}, nil
}

// AuthKey returns the session's auth key.
func (s *State) AuthKey() crypto.AuthKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authKey
}

// SessionID returns the session's own 64-bit id.
func (s *State) SessionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Salt returns the current server salt.
func (s *State) Salt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.salt
}

// SetSalt overwrites the current server salt, e.g. on receiving
// bad_server_salt (spec §4.8).
func (s *State) SetSalt(salt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salt = salt
}

// TimeOffset returns the clock offset applied to message-id allocation.
func (s *State) TimeOffset() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeOffset
}

// NextMsgID allocates the next outgoing message id (spec §3 "Message ID").
// Upper 32 bits are the adjusted unix time; lower 32 are nanoseconds
// shifted left by 2, so client-originated ids always have their two
// lowest bits clear. Monotonicity is enforced by bumping by 4 on any
// non-increase, including a backward clock step.
func (s *State) NextMsgID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	seconds := now.Unix() + int64(s.timeOffset)
	nanos := int64(now.Nanosecond())

	id := (seconds << 32) | ((nanos << 2) & 0xffffffff)
	if id <= s.lastMsgID {
		id = s.lastMsgID + 4
	}
	s.lastMsgID = id
	return id
}

// NextSeqNo allocates the next sequence number (spec §3 "Sequence
// Number"). Content-related messages (RPC calls) get an odd number and
// advance the session's content counter; content-unrelated messages
// (acks, pings) get the current even value without advancing it.
func (s *State) NextSeqNo(contentRelated bool) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !contentRelated {
		return s.seqNo * 2
	}
	seq := s.seqNo*2 + 1
	s.seqNo++
	return seq
}

// PackPlaintext frames body as a plaintext handshake message (spec §4.7):
// an 8-byte zero auth_key_id, followed by a message id and length-prefixed
// body. Used only before an auth key exists.
func PackPlaintext(body []byte) []byte {
	out := make([]byte, plaintextHeaderLen+len(body))
	// out[0:8] already zero.
	msgID := plaintextMsgID()
	binary.LittleEndian.PutUint64(out[8:16], uint64(msgID))
	binary.LittleEndian.PutUint32(out[16:20], uint32(len(body)))
	copy(out[20:], body)
	return out
}

// plaintextMsgID mints a message id for the plaintext handshake phase,
// using the same upper-32/lower-32 layout as encrypted messages but with
// no time offset or monotonicity state to consult (the handshake issues
// at most one in-flight plaintext message at a time per spec §4.4/§4.5).
func plaintextMsgID() int64 {
	now := time.Now()
	return (now.Unix() << 32) | ((int64(now.Nanosecond()) << 2) & 0xffffffff)
}

// UnpackPlaintext is the inverse of PackPlaintext, returning the message
// id and body of an incoming plaintext frame.
func UnpackPlaintext(frame []byte) (msgID int64, body []byte, err error) {
	if len(frame) < plaintextHeaderLen {
		return 0, nil, ErrShortPlaintext
	}
	msgID = int64(binary.LittleEndian.Uint64(frame[8:16]))
	bodyLen := binary.LittleEndian.Uint32(frame[16:20])
	if int(bodyLen) != len(frame)-plaintextHeaderLen {
		return 0, nil, ErrBodyLengthMismatch
	}
	body = make([]byte, bodyLen)
	copy(body, frame[20:])
	return msgID, body, nil
}

// Pack builds and encrypts one outgoing message: it allocates a message
// id and sequence number, assembles the plaintext header (salt, session
// id, msg id, seq no, body length) ahead of body, and encrypts the whole
// thing under the session's auth key (spec §3 "Encrypted Frame Layout",
// §4.7). It returns the wire frame and the message id assigned, so the
// caller can register a reply slot under that id before sending.
func (s *State) Pack(body []byte, contentRelated bool) (frame []byte, msgID int64, err error) {
	msgID = s.NextMsgID()
	seqNo := s.NextSeqNo(contentRelated)

	s.mu.Lock()
	salt, sessionID, authKey := s.salt, s.sessionID, s.authKey
	s.mu.Unlock()

	plaintext := make([]byte, encryptedHeaderLen+len(body))
	binary.LittleEndian.PutUint64(plaintext[0:8], uint64(salt))
	binary.LittleEndian.PutUint64(plaintext[8:16], uint64(sessionID))
	binary.LittleEndian.PutUint64(plaintext[16:24], uint64(msgID))
	binary.LittleEndian.PutUint32(plaintext[24:28], uint32(seqNo))
	binary.LittleEndian.PutUint32(plaintext[28:32], uint32(len(body)))
	copy(plaintext[32:], body)

	frame, err = crypto.EncryptDataV2(plaintext, &authKey)
	if err != nil {
		return nil, 0, fmt.Errorf("session: encrypt: %w", err)
	}
	return frame, msgID, nil
}

// Unpacked is one decrypted incoming message, still holding its TL-boxed
// body for the envelope unwrapper (internal/rpc) to interpret.
type Unpacked struct {
	MsgID int64
	SeqNo int32
	Body  []byte
}

// Unpack decrypts and validates an incoming frame: it checks the auth_key
// id and msg_key (delegated to crypto.DecryptDataV2), then verifies the
// decoded session_id matches this State's own id (spec §4.7 "detect
// misrouted or replayed frames") and opportunistically adopts a non-zero
// salt the server included (spec §4.7 "the server updates salt
// opportunistically").
func (s *State) Unpack(frame []byte) (Unpacked, error) {
	s.mu.Lock()
	authKey, sessionID := s.authKey, s.sessionID
	s.mu.Unlock()

	plaintext, err := crypto.DecryptDataV2(frame, &authKey)
	if err != nil {
		return Unpacked{}, fmt.Errorf("session: decrypt: %w", err)
	}
	if len(plaintext) < encryptedHeaderLen {
		return Unpacked{}, ErrShortPlaintext
	}

	salt := int64(binary.LittleEndian.Uint64(plaintext[0:8]))
	gotSessionID := int64(binary.LittleEndian.Uint64(plaintext[8:16]))
	msgID := int64(binary.LittleEndian.Uint64(plaintext[16:24]))
	seqNo := int32(binary.LittleEndian.Uint32(plaintext[24:28]))
	bodyLen := binary.LittleEndian.Uint32(plaintext[28:32])

	if gotSessionID != sessionID {
		return Unpacked{}, ErrSessionMismatch
	}
	if int(bodyLen) > len(plaintext)-encryptedHeaderLen {
		return Unpacked{}, ErrBodyLengthMismatch
	}

	if salt != 0 {
		s.SetSalt(salt)
	}

	body := make([]byte, bodyLen)
	copy(body, plaintext[encryptedHeaderLen:encryptedHeaderLen+int(bodyLen)])
	return Unpacked{MsgID: msgID, SeqNo: seqNo, Body: body}, nil
}
