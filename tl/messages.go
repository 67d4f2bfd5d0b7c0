package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the messages.Message family and the messaging RPCs
// built on top of it (spec's messaging surface: send/receive text
// messages, typing indicators, history paging).
const (
	idMessageEmpty   uint32 = 0x90a6ca84
	idMessage        uint32 = 0x38116ee0
	idMessageService uint32 = 0x2b085862

	idPeerUser    uint32 = 0x59511722
	idPeerChat    uint32 = 0x36c6019a
	idPeerChannel uint32 = 0xa2a5371e

	idMessageFwdHeader uint32 = 0x4e4df4bb

	idMessageReplyHeader uint32 = 0xa6d57763

	idMessageEntityUnknown   uint32 = 0xbb92ba95
	idMessageEntityMention   uint32 = 0xfa04579d
	idMessageEntityHashtag   uint32 = 0x6f635b0d
	idMessageEntityBotCommand uint32 = 0x6cef8ac7
	idMessageEntityURL       uint32 = 0x6ed02538
	idMessageEntityEmail     uint32 = 0x64e475c2
	idMessageEntityBold      uint32 = 0xbd610bc9
	idMessageEntityItalic    uint32 = 0x826f8b60
	idMessageEntityCode      uint32 = 0x28a20571
	idMessageEntityPre       uint32 = 0x73924be0
	idMessageEntityTextURL   uint32 = 0x76a6d327

	idMessageMediaEmpty       uint32 = 0x3ded6320
	idMessageMediaUnsupported uint32 = 0x9f84f49e

	idReplyKeyboardHide    uint32 = 0xa03e5b85
	idReplyKeyboardForceReply uint32 = 0xf4108aa0
	idReplyKeyboardMarkup  uint32 = 0x85dd99d1
	idReplyInlineMarkup    uint32 = 0x48a30254

	idMessagesSendMessage uint32 = 0x983f9745
	idMessagesSetTyping   uint32 = 0x58943ee2
	idMessagesGetHistory  uint32 = 0x4423e6c5
	idSendMessageTypingAction uint32 = 0x16bf744e
	idSendMessageCancelAction uint32 = 0xfd5ec8f5

	idInputPeerSelf uint32 = 0x7f3b18ea
	idInputPeerUser uint32 = 0xdde8a54c
	idInputPeerChat uint32 = 0x35a95cb9
	idInputPeerChannel uint32 = 0x27bcbbfc

	idMessagesMessages             uint32 = 0x8c718e87
	idMessagesMessagesSlice        uint32 = 0x3a54685e
	idMessagesChannelMessages      uint32 = 0x64479808
	idMessagesMessagesNotModified  uint32 = 0x74535f21
)

// Peer identifies a user, basic group, or channel/supergroup by its bare
// numeric id.
type Peer struct {
	UserID    int64
	ChatID    int64
	ChannelID int64
}

func decodePeer(r *tlcodec.Reader) (Peer, error) {
	id, err := r.Uint32()
	if err != nil {
		return Peer{}, err
	}
	switch id {
	case idPeerUser:
		uid, err := r.Int64()
		return Peer{UserID: uid}, err
	case idPeerChat:
		cid, err := r.Int64()
		return Peer{ChatID: cid}, err
	case idPeerChannel:
		cid, err := r.Int64()
		return Peer{ChannelID: cid}, err
	default:
		return Peer{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

func skipMessageFwdHeader(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	if id != idMessageFwdHeader {
		return tlcodec.NewUnexpectedConstructor(id)
	}
	flags, err := r.Int32()
	if err != nil {
		return err
	}
	if flags&1<<0 != 0 {
		if _, err := r.Int64(); err != nil { // from_id (deprecated bare user id)
			return err
		}
	}
	if flags&1<<5 != 0 {
		if _, err := decodePeer(r); err != nil { // from_id Peer
			return err
		}
	}
	if flags&1<<6 != 0 {
		if _, err := r.String(); err != nil { // from_name
			return err
		}
	}
	if _, err := r.Int32(); err != nil { // date
		return err
	}
	if flags&1<<2 != 0 {
		if _, err := r.Int32(); err != nil { // channel_post
			return err
		}
	}
	if flags&1<<3 != 0 {
		if _, err := r.String(); err != nil { // post_author
			return err
		}
	}
	if flags&1<<4 != 0 {
		if _, err := decodePeer(r); err != nil { // saved_from_peer
			return err
		}
		if _, err := r.Int32(); err != nil { // saved_from_msg_id
			return err
		}
	}
	if flags&1<<7 != 0 {
		if _, err := r.String(); err != nil { // psa_type
			return err
		}
	}
	if flags&1<<8 != 0 {
		if _, err := decodePeer(r); err != nil { // saved_from_id
			return err
		}
	}
	if flags&1<<9 != 0 {
		if _, err := r.String(); err != nil { // saved_from_name
			return err
		}
	}
	if flags&1<<10 != 0 {
		if _, err := r.Int64(); err != nil { // saved_date
			return err
		}
	}
	return nil
}

func skipMessageReplyHeader(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	if id != idMessageReplyHeader {
		return tlcodec.NewUnexpectedConstructor(id)
	}
	flags, err := r.Int32()
	if err != nil {
		return err
	}
	if flags&1<<3 != 0 {
		if _, err := r.Int32(); err != nil { // reply_to_scheduled msg id
			return err
		}
	} else if flags&1<<0 != 0 {
		if _, err := r.Int32(); err != nil { // reply_to_msg_id
			return err
		}
	}
	if flags&1<<1 != 0 {
		if _, err := decodePeer(r); err != nil { // reply_to_peer_id
			return err
		}
	}
	if flags&1<<4 != 0 {
		if _, err := r.Int32(); err != nil { // reply_to_top_id
			return err
		}
	}
	return nil
}

func skipMessageEntityVector(r *tlcodec.Reader) error {
	n, err := r.VectorHeader()
	if err != nil {
		return err
	}
	for range n {
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		switch id {
		case idMessageEntityUnknown, idMessageEntityMention, idMessageEntityHashtag,
			idMessageEntityBotCommand, idMessageEntityURL, idMessageEntityEmail,
			idMessageEntityBold, idMessageEntityItalic, idMessageEntityCode:
			if _, err := r.Int32(); err != nil { // offset
				return err
			}
			if _, err := r.Int32(); err != nil { // length
				return err
			}
		case idMessageEntityPre:
			if _, err := r.Int32(); err != nil { // offset
				return err
			}
			if _, err := r.Int32(); err != nil { // length
				return err
			}
			if _, err := r.String(); err != nil { // language
				return err
			}
		case idMessageEntityTextURL:
			if _, err := r.Int32(); err != nil { // offset
				return err
			}
			if _, err := r.Int32(); err != nil { // length
				return err
			}
			if _, err := r.String(); err != nil { // url
				return err
			}
		default:
			return tlcodec.NewUnexpectedConstructor(id)
		}
	}
	return nil
}

// skipMessageMedia consumes a boxed MessageMedia value the representative
// subset recognizes. Media-rich messages whose variant isn't one of these
// return an error rather than desynchronizing the stream.
func skipMessageMedia(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	switch id {
	case idMessageMediaEmpty:
		return nil
	case idMessageMediaUnsupported:
		return nil
	default:
		return tlcodec.NewUnexpectedConstructor(id)
	}
}

func skipReplyMarkup(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	switch id {
	case idReplyKeyboardHide, idReplyKeyboardForceReply:
		_, err := r.Int32() // flags
		return err
	case idReplyKeyboardMarkup, idReplyInlineMarkup:
		// Both carry a keyboard of rows of buttons with heterogeneous
		// button types; this client neither sends nor interprets
		// interactive keyboards, so a markup present on an inbound
		// message is reported rather than silently skipped.
		return errUnsupportedReplyMarkup
	default:
		return tlcodec.NewUnexpectedConstructor(id)
	}
}

var errUnsupportedReplyMarkup = tlDecodeError("tl: reply markup decoding requires the full generated schema")

// IncomingMessage is the subset of message/messageService this client
// classifies updateNewMessage/updateEditMessage payloads into.
type IncomingMessage struct {
	ID       int32
	Out      bool
	FromID   Peer
	HasFrom  bool
	PeerID   Peer
	Date     int32
	Text     string
	Service  bool
}

// decodeMessage fully decodes a boxed message/messageService/messageEmpty
// constructor so the cursor lands correctly on whatever follows it.
func decodeMessage(r *tlcodec.Reader) (IncomingMessage, uint32, error) {
	id, err := r.Uint32()
	if err != nil {
		return IncomingMessage{}, 0, err
	}
	switch id {
	case idMessageEmpty:
		flags, err := r.Int32()
		if err != nil {
			return IncomingMessage{}, id, err
		}
		msgID, err := r.Int32()
		if err != nil {
			return IncomingMessage{}, id, err
		}
		if flags&1<<0 != 0 {
			if _, err := decodePeer(r); err != nil { // peer_id
				return IncomingMessage{}, id, err
			}
		}
		return IncomingMessage{ID: msgID}, id, nil
	case idMessage:
		m, err := decodeFullMessage(r, false)
		return m, id, err
	case idMessageService:
		m, err := decodeFullMessage(r, true)
		return m, id, err
	default:
		return IncomingMessage{}, id, tlcodec.NewUnexpectedConstructor(id)
	}
}

func decodeFullMessage(r *tlcodec.Reader, service bool) (IncomingMessage, error) {
	flags, err := r.Int32()
	if err != nil {
		return IncomingMessage{}, err
	}
	var v IncomingMessage
	v.Service = service
	v.Out = flags&1<<1 != 0
	if v.ID, err = r.Int32(); err != nil {
		return IncomingMessage{}, err
	}
	if flags&1<<8 != 0 {
		v.HasFrom = true
		if v.FromID, err = decodePeer(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if flags&1<<28 != 0 {
		if _, err := decodePeer(r); err != nil { // saved_peer_id
			return IncomingMessage{}, err
		}
	}
	if v.PeerID, err = decodePeer(r); err != nil {
		return IncomingMessage{}, err
	}
	if flags&1<<2 != 0 {
		if err := skipMessageFwdHeader(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if flags&1<<11 != 0 {
		if _, err := r.Int64(); err != nil { // via_bot_id
			return IncomingMessage{}, err
		}
	}
	if flags&1<<3 != 0 {
		if err := skipMessageReplyHeader(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if v.Date, err = r.Int32(); err != nil {
		return IncomingMessage{}, err
	}
	if service {
		// messageService carries an "action" union instead of text/media;
		// this representative subset does not interpret service actions
		// beyond reaching the end of this constructor.
		return v, errUnsupportedServiceAction
	}
	if v.Text, err = r.String(); err != nil {
		return IncomingMessage{}, err
	}
	if flags&1<<9 != 0 {
		if err := skipMessageMedia(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if flags&1<<6 != 0 {
		if err := skipReplyMarkup(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if flags&1<<7 != 0 {
		if err := skipMessageEntityVector(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if flags&1<<10 != 0 {
		if _, err := r.Int32(); err != nil { // views
			return IncomingMessage{}, err
		}
		if _, err := r.Int32(); err != nil { // forwards
			return IncomingMessage{}, err
		}
	}
	if flags&1<<15 != 0 {
		if _, err := r.Int32(); err != nil { // edit_date
			return IncomingMessage{}, err
		}
	}
	if flags&1<<16 != 0 {
		if _, err := r.String(); err != nil { // post_author
			return IncomingMessage{}, err
		}
	}
	if flags&1<<17 != 0 {
		if _, err := r.Int64(); err != nil { // grouped_id
			return IncomingMessage{}, err
		}
	}
	if flags&1<<22 != 0 {
		if err := skipRestrictionReasons(r); err != nil {
			return IncomingMessage{}, err
		}
	}
	if flags&1<<25 != 0 {
		if _, err := r.Int32(); err != nil { // ttl_period
			return IncomingMessage{}, err
		}
	}
	return v, nil
}

var errUnsupportedServiceAction = tlDecodeError("tl: service message action decoding requires the full generated schema")

// InputPeer addresses a peer in an outgoing RPC. Use InputPeerSelf for
// Saved Messages; the others require a cached access hash (spec's Peer
// Cache: "attempting to call with an unknown-hash peer is a caller-visible
// error").
type InputPeer struct {
	Self       bool
	UserID     int64
	UserHash   int64
	ChatID     int64
	ChannelID  int64
	ChannelHash int64
}

// Encode serializes the InputPeer variant selected by the populated
// fields.
func (p InputPeer) Encode(w *tlcodec.Writer) {
	switch {
	case p.Self:
		w.PutUint32(idInputPeerSelf)
	case p.ChannelID != 0:
		w.PutUint32(idInputPeerChannel)
		w.PutInt64(p.ChannelID)
		w.PutInt64(p.ChannelHash)
	case p.ChatID != 0:
		w.PutUint32(idInputPeerChat)
		w.PutInt64(p.ChatID)
	default:
		w.PutUint32(idInputPeerUser)
		w.PutInt64(p.UserID)
		w.PutInt64(p.UserHash)
	}
}

// SendMessage is messages.sendMessage.
type SendMessage struct {
	NoWebpage  bool
	Silent     bool
	Peer       InputPeer
	ReplyToMsgID int32
	HasReplyTo bool
	Message    string
	RandomID   int64
}

// Encode serializes messages.sendMessage.
func (s SendMessage) Encode(w *tlcodec.Writer) {
	var flags int32
	if s.NoWebpage {
		flags |= 1 << 1
	}
	if s.Silent {
		flags |= 1 << 5
	}
	if s.HasReplyTo {
		flags |= 1 << 0
	}
	w.PutUint32(idMessagesSendMessage)
	w.PutInt32(flags)
	s.Peer.Encode(w)
	if s.HasReplyTo {
		w.PutInt32(s.ReplyToMsgID)
	}
	w.PutString(s.Message)
	w.PutInt64(s.RandomID)
}

// TypingAction selects the activity reported to SetTyping.
type TypingAction int

// Typing actions this client issues (spec's scoped "chat action"
// indicator).
const (
	TypingActionTyping TypingAction = iota
	TypingActionCancel
)

// SetTyping is messages.setTyping.
type SetTyping struct {
	Peer   InputPeer
	Action TypingAction
}

// Encode serializes messages.setTyping.
func (s SetTyping) Encode(w *tlcodec.Writer) {
	w.PutUint32(idMessagesSetTyping)
	w.PutInt32(0) // flags: top_msg_id unused
	s.Peer.Encode(w)
	switch s.Action {
	case TypingActionCancel:
		w.PutUint32(idSendMessageCancelAction)
	default:
		w.PutUint32(idSendMessageTypingAction)
	}
}

// GetHistory is messages.getHistory, paging backwards through a peer's
// message history (spec's MessageIter pagination).
type GetHistory struct {
	Peer      InputPeer
	OffsetID  int32
	AddOffset int32
	Limit     int32
	MaxID     int32
	MinID     int32
	Hash      int64
}

// Encode serializes messages.getHistory.
func (g GetHistory) Encode(w *tlcodec.Writer) {
	w.PutUint32(idMessagesGetHistory)
	g.Peer.Encode(w)
	w.PutInt32(g.OffsetID)
	w.PutInt32(0) // offset_date
	w.PutInt32(g.AddOffset)
	w.PutInt32(g.Limit)
	w.PutInt32(g.MaxID)
	w.PutInt32(g.MinID)
	w.PutInt64(g.Hash)
}

// MessagesPage is the boxed messages.Messages result of GetHistory: one
// page of messages plus the peers referenced by them and, where the server
// reports it, the total count backing a pagination cursor (the client
// surface's MessageIter).
type MessagesPage struct {
	Messages []IncomingMessage
	Users    []User
	Chats    []Chat
	Count    int32
	HasCount bool
}

// DecodeMessagesPage reads any variant of the boxed messages.Messages type:
// messages.messages (the full, unpaginated set), messages.messagesSlice and
// messages.channelMessages (paginated, carrying a total Count), and
// messages.messagesNotModified (a cache-hash hit carrying only a count).
func DecodeMessagesPage(r *tlcodec.Reader) (MessagesPage, error) {
	id, err := r.Uint32()
	if err != nil {
		return MessagesPage{}, err
	}
	switch id {
	case idMessagesMessagesNotModified:
		count, err := r.Int32()
		if err != nil {
			return MessagesPage{}, err
		}
		return MessagesPage{Count: count, HasCount: true}, nil
	case idMessagesMessages:
		return decodeMessagesPageBody(r, false, false)
	case idMessagesMessagesSlice:
		return decodeMessagesPageBody(r, true, false)
	case idMessagesChannelMessages:
		return decodeMessagesPageBody(r, true, true)
	default:
		return MessagesPage{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

func decodeMessagesPageBody(r *tlcodec.Reader, paginated, channel bool) (MessagesPage, error) {
	var v MessagesPage
	var flags int32
	var err error
	if paginated {
		if flags, err = r.Int32(); err != nil {
			return MessagesPage{}, err
		}
	}
	if channel {
		if _, err := r.Int32(); err != nil { // pts
			return MessagesPage{}, err
		}
	}
	if paginated {
		v.HasCount = true
		if v.Count, err = r.Int32(); err != nil {
			return MessagesPage{}, err
		}
		if flags&1<<0 != 0 {
			if _, err := r.Int32(); err != nil { // next_rate
				return MessagesPage{}, err
			}
		}
		if flags&1<<2 != 0 {
			if _, err := r.Int32(); err != nil { // offset_id_offset
				return MessagesPage{}, err
			}
		}
	}

	n, err := r.VectorHeader()
	if err != nil {
		return MessagesPage{}, err
	}
	v.Messages = make([]IncomingMessage, 0, n)
	for range n {
		m, _, err := decodeMessage(r)
		if err != nil && err != errUnsupportedServiceAction {
			return MessagesPage{}, err
		}
		v.Messages = append(v.Messages, m)
	}

	if channel && flags&1<<3 != 0 {
		// topics:Vector<ForumTopic> is not needed by this client and its
		// elements are not homogeneous with Chat/User, so a forum reply's
		// topic list is intentionally left undecoded; callers reading
		// forum-topic history should route through internal/tlgen instead.
		return MessagesPage{}, errUnsupportedForumTopics
	}

	nc, err := r.VectorHeader()
	if err != nil {
		return MessagesPage{}, err
	}
	v.Chats = make([]Chat, 0, nc)
	for range nc {
		c, err := DecodeChat(r)
		if err != nil {
			return MessagesPage{}, err
		}
		v.Chats = append(v.Chats, c)
	}

	nu, err := r.VectorHeader()
	if err != nil {
		return MessagesPage{}, err
	}
	v.Users = make([]User, 0, nu)
	for range nu {
		u, err := DecodeUser(r)
		if err != nil {
			return MessagesPage{}, err
		}
		v.Users = append(v.Users, u)
	}

	return v, nil
}

var errUnsupportedForumTopics = tlDecodeError("tl: forum topic decoding requires the full generated schema")
