package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the updates.* RPC family, the top-level Updates
// container variants, and the individual Update constructors this client
// classifies (spec §7's update classification: NewMessage, MessageEdited,
// MessageDeleted, CallbackQuery, InlineQuery, InlineSend, and a Raw
// fallback for everything else).
const (
	idUpdatesGetState      uint32 = 0xedd4882a
	idUpdatesState         uint32 = 0xa56c2a3e
	idUpdatesGetDifference uint32 = 0x19c2f763

	idUpdatesDifferenceEmpty    uint32 = 0x5d75a138
	idUpdatesDifference         uint32 = 0x00f49ca0
	idUpdatesDifferenceSlice    uint32 = 0xa8fb1981
	idUpdatesDifferenceTooLong  uint32 = 0x4afe8f6d

	idUpdateShort         uint32 = 0x78d4dec1
	idUpdateShortMessage  uint32 = 0x313bc7f8
	idUpdateShortSentMessage uint32 = 0x11f1331c
	idUpdatesCombined     uint32 = 0x725b04c3
	idUpdatesTop          uint32 = 0x74ae4240
	idUpdatesTooLong      uint32 = 0xe317af7e

	idUpdateNewMessage       uint32 = 0x1f2b0afd
	idUpdateEditMessage      uint32 = 0xe40370a3
	idUpdateDeleteMessages   uint32 = 0xa20db0e5
	idUpdateDeleteChannelMessages uint32 = 0xc37521c9
	idUpdateBotCallbackQuery uint32 = 0xe73547e1
	idUpdateInlineBotCallbackQuery uint32 = 0x691e9052
	idUpdateBotInlineQuery   uint32 = 0x496f379c
	idUpdateBotInlineSend    uint32 = 0x12f12a07
)

// State is updates.state, the server's checkpoint for pts/qts/date/seq
// (spec §7: update gap detection).
type State struct {
	Pts  int32
	Qts  int32
	Date int32
	Seq  int32
}

// DecodeState reads a boxed updates.state constructor.
func DecodeState(r *tlcodec.Reader) (State, error) {
	id, err := r.Uint32()
	if err != nil {
		return State{}, err
	}
	if id != idUpdatesState {
		return State{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v State
	if v.Pts, err = r.Int32(); err != nil {
		return State{}, err
	}
	if v.Qts, err = r.Int32(); err != nil {
		return State{}, err
	}
	if v.Date, err = r.Int32(); err != nil {
		return State{}, err
	}
	if v.Seq, err = r.Int32(); err != nil {
		return State{}, err
	}
	if _, err := r.Int32(); err != nil { // unread_count
		return State{}, err
	}
	return v, nil
}

// GetState is updates.getState, fetching the server's current checkpoint.
type GetState struct{}

// Encode serializes updates.getState.
func (GetState) Encode(w *tlcodec.Writer) { w.PutUint32(idUpdatesGetState) }

// GetDifference is updates.getDifference, fetching every update missed
// since (Pts, Qts, Date) (spec §7 gap recovery).
type GetDifference struct {
	Pts            int32
	PtsLimit       int32
	HasPtsLimit    bool
	Date           int32
	Qts            int32
	QtsLimit       int32
	HasQtsLimit    bool
}

// Encode serializes updates.getDifference.
func (g GetDifference) Encode(w *tlcodec.Writer) {
	var flags int32
	if g.HasPtsLimit {
		flags |= 1 << 1
	}
	if g.HasQtsLimit {
		flags |= 1 << 2
	}
	w.PutUint32(idUpdatesGetDifference)
	w.PutInt32(flags)
	w.PutInt32(g.Pts)
	if g.HasPtsLimit {
		w.PutInt32(g.PtsLimit)
	}
	w.PutInt32(g.Date)
	w.PutInt32(g.Qts)
	if g.HasQtsLimit {
		w.PutInt32(g.QtsLimit)
	}
}

// Difference is updates.Difference, the catch-up response to
// GetDifference: exactly one of Empty, Full, Slice, or TooLong is set.
type Difference struct {
	Empty   *DifferenceEmpty
	Full    *DifferenceFull
	Slice   *DifferenceSlice
	TooLong *DifferenceTooLong
}

// DifferenceEmpty is updates.differenceEmpty: no updates were missed.
type DifferenceEmpty struct {
	Date int32
	Seq  int32
}

// DifferenceFull is updates.difference: the complete catch-up payload.
type DifferenceFull struct {
	NewMessages  []IncomingMessage
	OtherUpdates []Update
	Users        []User
	Chats        []Chat
	State        State
}

// DifferenceSlice is updates.differenceSlice: a partial catch-up payload;
// callers must call GetDifference again using IntermediateState.
type DifferenceSlice struct {
	NewMessages      []IncomingMessage
	OtherUpdates     []Update
	Users            []User
	Chats            []Chat
	IntermediateState State
}

// DifferenceTooLong is updates.differenceTooLong: the gap is too large to
// replay; the client must discard local state and resync from Pts.
type DifferenceTooLong struct {
	Pts int32
}

// DecodeDifference reads any variant of updates.Difference.
func DecodeDifference(r *tlcodec.Reader) (Difference, error) {
	id, err := r.Uint32()
	if err != nil {
		return Difference{}, err
	}
	switch id {
	case idUpdatesDifferenceEmpty:
		var d DifferenceEmpty
		if d.Date, err = r.Int32(); err != nil {
			return Difference{}, err
		}
		if d.Seq, err = r.Int32(); err != nil {
			return Difference{}, err
		}
		return Difference{Empty: &d}, nil
	case idUpdatesDifference, idUpdatesDifferenceSlice:
		msgs, err := decodeMessageVector(r)
		if err != nil {
			return Difference{}, err
		}
		if _, err := r.VectorHeader(); err != nil { // new_encrypted_messages: always empty for this client, skip count
			return Difference{}, err
		}
		upds, err := decodeUpdateVector(r)
		if err != nil {
			return Difference{}, err
		}
		users, err := decodeUserVector(r)
		if err != nil {
			return Difference{}, err
		}
		chats, err := decodeChatVector(r)
		if err != nil {
			return Difference{}, err
		}
		if id == idUpdatesDifference {
			st, err := DecodeState(r)
			if err != nil {
				return Difference{}, err
			}
			return Difference{Full: &DifferenceFull{
				NewMessages: msgs, OtherUpdates: upds, Users: users, Chats: chats, State: st,
			}}, nil
		}
		st, err := DecodeState(r)
		if err != nil {
			return Difference{}, err
		}
		return Difference{Slice: &DifferenceSlice{
			NewMessages: msgs, OtherUpdates: upds, Users: users, Chats: chats, IntermediateState: st,
		}}, nil
	case idUpdatesDifferenceTooLong:
		var d DifferenceTooLong
		if d.Pts, err = r.Int32(); err != nil {
			return Difference{}, err
		}
		return Difference{TooLong: &d}, nil
	default:
		return Difference{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

// decodeMessageVector reads a Vector<Message> into IncomingMessage values.
// Secret-chat messages (new_encrypted_messages) are not represented here —
// this client does not implement MTProto secret chats.
func decodeMessageVector(r *tlcodec.Reader) ([]IncomingMessage, error) {
	n, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	out := make([]IncomingMessage, n)
	for i := range out {
		m, _, err := decodeMessage(r)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func decodeUserVector(r *tlcodec.Reader) ([]User, error) {
	n, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	users := make([]User, n)
	for i := range users {
		if users[i], err = DecodeUser(r); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func decodeChatVector(r *tlcodec.Reader) ([]Chat, error) {
	n, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	chats := make([]Chat, n)
	for i := range chats {
		if chats[i], err = DecodeChat(r); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// UpdateKind classifies a decoded Update into the compact high-level
// surface the client exposes (spec §7).
type UpdateKind int

// Update classifications.
const (
	UpdateKindRaw UpdateKind = iota
	UpdateKindNewMessage
	UpdateKindMessageEdited
	UpdateKindMessageDeleted
	UpdateKindCallbackQuery
	UpdateKindInlineQuery
	UpdateKindInlineSend
)

// Update is one classified entry from a Vector<Update>. Fields outside the
// active Kind are zero.
type Update struct {
	Kind UpdateKind

	// NewMessage / MessageEdited
	MessageBoxID uint32 // the inner messages.Message constructor id, unparsed

	// MessageDeleted
	MessageIDs []int32
	ChannelID  int64 // 0 for non-channel deletions
	Pts        int32
	PtsCount   int32

	// CallbackQuery / InlineQuery / InlineSend
	QueryID int64
	UserID  int64
	Data    []byte

	// Raw fallback
	RawConstructorID uint32
}

// decodeUpdateVector reads a boxed Vector<Update>.
func decodeUpdateVector(r *tlcodec.Reader) ([]Update, error) {
	n, err := r.VectorHeader()
	if err != nil {
		return nil, err
	}
	out := make([]Update, n)
	for i := range out {
		if out[i], err = decodeOneUpdate(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeOneUpdate(r *tlcodec.Reader) (Update, error) {
	id, err := r.Uint32()
	if err != nil {
		return Update{}, err
	}
	switch id {
	case idUpdateNewMessage:
		// messageService's action union is not decoded by this
		// representative subset (spec's focus is text messaging, not
		// group-management service events); decodeMessage returns an
		// error for it rather than guessing at the cursor position, so
		// a service-action update here surfaces as a decode error
		// instead of silently desynchronizing the rest of the vector.
		_, boxID, err := decodeMessage(r)
		if err != nil {
			return Update{}, err
		}
		pts, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		ptsCount, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		return Update{Kind: UpdateKindNewMessage, MessageBoxID: boxID, Pts: pts, PtsCount: ptsCount}, nil
	case idUpdateEditMessage:
		_, boxID, err := decodeMessage(r)
		if err != nil {
			return Update{}, err
		}
		pts, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		ptsCount, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		return Update{Kind: UpdateKindMessageEdited, MessageBoxID: boxID, Pts: pts, PtsCount: ptsCount}, nil
	case idUpdateDeleteMessages:
		n, err := r.VectorHeader()
		if err != nil {
			return Update{}, err
		}
		ids := make([]int32, n)
		for i := range ids {
			if ids[i], err = r.Int32(); err != nil {
				return Update{}, err
			}
		}
		pts, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		ptsCount, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		return Update{Kind: UpdateKindMessageDeleted, MessageIDs: ids, Pts: pts, PtsCount: ptsCount}, nil
	case idUpdateDeleteChannelMessages:
		channelID, err := r.Int64()
		if err != nil {
			return Update{}, err
		}
		n, err := r.VectorHeader()
		if err != nil {
			return Update{}, err
		}
		ids := make([]int32, n)
		for i := range ids {
			if ids[i], err = r.Int32(); err != nil {
				return Update{}, err
			}
		}
		pts, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		ptsCount, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		return Update{Kind: UpdateKindMessageDeleted, ChannelID: channelID, MessageIDs: ids, Pts: pts, PtsCount: ptsCount}, nil
	case idUpdateBotCallbackQuery:
		flags, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		queryID, err := r.Int64()
		if err != nil {
			return Update{}, err
		}
		userID, err := r.Int64()
		if err != nil {
			return Update{}, err
		}
		if _, err := r.Uint32(); err != nil { // Peer boxed constructor id
			return Update{}, err
		}
		if _, err := r.Int64(); err != nil { // peer id payload (user/chat/channel id)
			return Update{}, err
		}
		if _, err := r.Int32(); err != nil { // msg_id
			return Update{}, err
		}
		if _, err := r.Int64(); err != nil { // chat_instance
			return Update{}, err
		}
		var data []byte
		if flags&1<<0 != 0 {
			if data, err = r.Bytes(); err != nil {
				return Update{}, err
			}
		}
		return Update{Kind: UpdateKindCallbackQuery, QueryID: queryID, UserID: userID, Data: data}, nil
	case idUpdateBotInlineQuery:
		flags, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		queryID, err := r.Int64()
		if err != nil {
			return Update{}, err
		}
		userID, err := r.Int64()
		if err != nil {
			return Update{}, err
		}
		if _, err := r.String(); err != nil { // query text
			return Update{}, err
		}
		if flags&1<<0 != 0 {
			if _, err := r.Uint32(); err != nil { // geo point boxed id
				return Update{}, err
			}
		}
		if flags&1<<3 != 0 {
			if _, err := r.Uint32(); err != nil { // peer type boxed id
				return Update{}, err
			}
		}
		if _, err := r.String(); err != nil { // offset
			return Update{}, err
		}
		return Update{Kind: UpdateKindInlineQuery, QueryID: queryID, UserID: userID}, nil
	case idUpdateBotInlineSend:
		flags, err := r.Int32()
		if err != nil {
			return Update{}, err
		}
		userID, err := r.Int64()
		if err != nil {
			return Update{}, err
		}
		if _, err := r.String(); err != nil { // query
			return Update{}, err
		}
		if flags&1<<0 != 0 {
			if _, err := r.Uint32(); err != nil { // geo point boxed id
				return Update{}, err
			}
		}
		if _, err := r.String(); err != nil { // id
			return Update{}, err
		}
		if flags&1<<1 != 0 {
			if _, err := r.Uint32(); err != nil { // input_bot_inline_message_id boxed id
				return Update{}, err
			}
		}
		return Update{Kind: UpdateKindInlineSend, UserID: userID}, nil
	default:
		return Update{Kind: UpdateKindRaw, RawConstructorID: id}, nil
	}
}

// Updates is the top-level Updates boxed type: the envelope the server
// pushes over an authenticated session (spec §7). Which fields are set
// depends on the constructor that produced it: updateShort sets ShortUpdate
// and Date; updateShortMessage and updateShortSentMessage set both
// ShortMessage and ShortUpdate; updates and updatesCombined set Updates,
// Users, Chats, Date and Seq. TooLong carries nothing; internal/updates
// answers it with a full updates.getState resync.
type Updates struct {
	TooLong bool

	ShortUpdate *Update // updateShort's single inner Update

	ShortMessage *IncomingMessage // updateShortMessage / updateShortSentMessage, synthesized

	Updates []Update
	Users   []User
	Chats   []Chat
	Date    int32
	Seq     int32
}

// DecodeUpdates reads any variant of the top-level Updates boxed type.
func DecodeUpdates(r *tlcodec.Reader) (Updates, error) {
	id, err := r.Uint32()
	if err != nil {
		return Updates{}, err
	}
	switch id {
	case idUpdatesTooLong:
		return Updates{TooLong: true}, nil
	case idUpdateShort:
		u, err := decodeOneUpdate(r)
		if err != nil {
			return Updates{}, err
		}
		date, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		return Updates{ShortUpdate: &u, Date: date}, nil
	case idUpdateShortMessage:
		flags, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		msgID, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		userID, err := r.Int64()
		if err != nil {
			return Updates{}, err
		}
		if flags&1<<2 != 0 {
			if err := skipMessageFwdHeader(r); err != nil {
				return Updates{}, err
			}
		}
		if flags&1<<11 != 0 {
			if _, err := r.Int64(); err != nil { // via_bot_id
				return Updates{}, err
			}
		}
		if flags&1<<3 != 0 {
			if err := skipMessageReplyHeader(r); err != nil {
				return Updates{}, err
			}
		}
		date, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		text, err := r.String()
		if err != nil {
			return Updates{}, err
		}
		if flags&1<<7 != 0 {
			if err := skipMessageEntityVector(r); err != nil {
				return Updates{}, err
			}
		}
		if flags&1<<25 != 0 {
			if _, err := r.Int32(); err != nil { // ttl_period
				return Updates{}, err
			}
		}
		pts, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		ptsCount, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		msg := &IncomingMessage{ID: msgID, Out: flags&1<<1 != 0, FromID: Peer{UserID: userID}, HasFrom: true, Date: date, Text: text}
		return Updates{ShortMessage: msg, ShortUpdate: &Update{Kind: UpdateKindNewMessage, Pts: pts, PtsCount: ptsCount}}, nil
	case idUpdateShortSentMessage:
		flags, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		msgID, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		date, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		if flags&1<<9 != 0 {
			if err := skipMessageMedia(r); err != nil {
				return Updates{}, err
			}
		}
		if flags&1<<7 != 0 {
			if err := skipMessageEntityVector(r); err != nil {
				return Updates{}, err
			}
		}
		if flags&1<<25 != 0 {
			if _, err := r.Int32(); err != nil { // ttl_period
				return Updates{}, err
			}
		}
		pts, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		ptsCount, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		msg := &IncomingMessage{ID: msgID, Out: true, Date: date}
		return Updates{ShortMessage: msg, ShortUpdate: &Update{Kind: UpdateKindNewMessage, Pts: pts, PtsCount: ptsCount}}, nil
	case idUpdatesCombined:
		upds, err := decodeUpdateVector(r)
		if err != nil {
			return Updates{}, err
		}
		users, err := decodeUserVector(r)
		if err != nil {
			return Updates{}, err
		}
		chats, err := decodeChatVector(r)
		if err != nil {
			return Updates{}, err
		}
		date, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		if _, err := r.Int32(); err != nil { // seq_start
			return Updates{}, err
		}
		seq, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		return Updates{Updates: upds, Users: users, Chats: chats, Date: date, Seq: seq}, nil
	case idUpdatesTop:
		upds, err := decodeUpdateVector(r)
		if err != nil {
			return Updates{}, err
		}
		users, err := decodeUserVector(r)
		if err != nil {
			return Updates{}, err
		}
		chats, err := decodeChatVector(r)
		if err != nil {
			return Updates{}, err
		}
		date, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		seq, err := r.Int32()
		if err != nil {
			return Updates{}, err
		}
		return Updates{Updates: upds, Users: users, Chats: chats, Date: date, Seq: seq}, nil
	default:
		return Updates{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

// Exported updates-family constructor ids, for internal/rpc's envelope
// dispatch (spec §4.8's "updates, updateShort*, updatesCombined,
// updatesTooLong" routing rule) and internal/updates' decode path.
const (
	IDUpdateShort            = idUpdateShort
	IDUpdateShortMessage     = idUpdateShortMessage
	IDUpdateShortSentMessage = idUpdateShortSentMessage
	IDUpdatesCombined        = idUpdatesCombined
	IDUpdatesTop             = idUpdatesTop
	IDUpdatesTooLong         = idUpdatesTooLong
)
