package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the User/Chat/Channel family and the small object
// graph hanging off them (profile photos, status, restriction reasons,
// admin/banned rights). Only enough of each constructor is decoded to
// reach the access hash and keep the reader's cursor correctly positioned
// past every field — this client does not expose photos, statuses, or
// admin rights, but must still walk past them to decode the next sibling
// in a Vector<User>/Vector<Chat> correctly (spec's Peer Cache populates
// from every API response that includes user/chat objects).
const (
	idUserEmpty        uint32 = 0x2cc63ed3
	idUser              uint32 = 0x3ff6ecb0
	idChatEmpty        uint32 = 0x29562865
	idChat               uint32 = 0x41cbf256
	idChatForbidden    uint32 = 0x6592a1a7
	idChannel            uint32 = 0xd31a961e
	idChannelForbidden uint32 = 0x17d493d5

	idUserProfilePhotoEmpty uint32 = 0x4f11bae1
	idUserProfilePhoto      uint32 = 0x82d1f706

	idUserStatusEmpty     uint32 = 0x09d05049
	idUserStatusOnline    uint32 = 0xedb93949
	idUserStatusOffline   uint32 = 0x008c703f
	idUserStatusRecently  uint32 = 0xe26f42f1
	idUserStatusLastWeek  uint32 = 0x07bf09fc
	idUserStatusLastMonth uint32 = 0x77ebc742

	idRestrictionReason uint32 = 0xd072acb4

	idChatPhotoEmpty uint32 = 0x37c1011c
	idChatPhoto      uint32 = 0x1c6e1c11

	idChatAdminRights uint32 = 0x5fb224d5
	idChatBannedRights uint32 = 0x9f120418
)

// skipUserProfilePhoto consumes a boxed UserProfilePhoto value without
// exposing it.
func skipUserProfilePhoto(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	switch id {
	case idUserProfilePhotoEmpty:
		return nil
	case idUserProfilePhoto:
		flags, err := r.Int32()
		if err != nil {
			return err
		}
		if _, err := r.Int64(); err != nil { // photo_id
			return err
		}
		if flags&1<<1 != 0 {
			if _, err := r.Bytes(); err != nil { // stripped_thumb
				return err
			}
		}
		if _, err := r.Int32(); err != nil { // dc_id
			return err
		}
		return nil
	default:
		return tlcodec.NewUnexpectedConstructor(id)
	}
}

// skipChatPhoto consumes a boxed ChatPhoto value without exposing it. Its
// wire shape mirrors UserProfilePhoto.
func skipChatPhoto(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	switch id {
	case idChatPhotoEmpty:
		return nil
	case idChatPhoto:
		flags, err := r.Int32()
		if err != nil {
			return err
		}
		if _, err := r.Int64(); err != nil { // photo_id
			return err
		}
		if flags&1<<1 != 0 {
			if _, err := r.Bytes(); err != nil { // stripped_thumb
				return err
			}
		}
		if _, err := r.Int32(); err != nil { // dc_id
			return err
		}
		return nil
	default:
		return tlcodec.NewUnexpectedConstructor(id)
	}
}

// skipUserStatus consumes a boxed UserStatus value without exposing it.
func skipUserStatus(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	switch id {
	case idUserStatusEmpty, idUserStatusRecently, idUserStatusLastWeek, idUserStatusLastMonth:
		return nil
	case idUserStatusOnline, idUserStatusOffline:
		_, err := r.Int32() // expires / was_online
		return err
	default:
		return tlcodec.NewUnexpectedConstructor(id)
	}
}

// skipRestrictionReasons consumes a boxed Vector<RestrictionReason>.
func skipRestrictionReasons(r *tlcodec.Reader) error {
	n, err := r.VectorHeader()
	if err != nil {
		return err
	}
	for range n {
		id, err := r.Uint32()
		if err != nil {
			return err
		}
		if id != idRestrictionReason {
			return tlcodec.NewUnexpectedConstructor(id)
		}
		if _, err := r.String(); err != nil { // platform
			return err
		}
		if _, err := r.String(); err != nil { // reason
			return err
		}
		if _, err := r.String(); err != nil { // text
			return err
		}
	}
	return nil
}

// skipChatAdminRights consumes a boxed ChatAdminRights value.
func skipChatAdminRights(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	if id != idChatAdminRights {
		return tlcodec.NewUnexpectedConstructor(id)
	}
	_, err = r.Int32() // flags: every field is a bare true-bit, no payload
	return err
}

// skipChatBannedRights consumes a boxed ChatBannedRights value.
func skipChatBannedRights(r *tlcodec.Reader) error {
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	if id != idChatBannedRights {
		return tlcodec.NewUnexpectedConstructor(id)
	}
	if _, err := r.Int32(); err != nil { // flags
		return err
	}
	_, err = r.Int32() // until_date
	return err
}

// User carries the subset of the user constructor this client acts on:
// identity, bot-ness, and the access hash required to address it in
// outgoing calls (spec's Peer Cache).
type User struct {
	ID         int64
	AccessHash int64
	HasHash    bool
	Bot        bool
	FirstName  string
	Username   string
}

// DecodeUser reads either userEmpty or a full user constructor, fully
// consuming every field so the reader's cursor lands exactly on the next
// sibling.
func DecodeUser(r *tlcodec.Reader) (User, error) {
	id, err := r.Uint32()
	if err != nil {
		return User{}, err
	}
	switch id {
	case idUserEmpty:
		uid, err := r.Int64()
		if err != nil {
			return User{}, err
		}
		return User{ID: uid}, nil
	case idUser:
		return decodeUserFields(r)
	default:
		return User{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

func decodeUserFields(r *tlcodec.Reader) (User, error) {
	flags, err := r.Int32()
	if err != nil {
		return User{}, err
	}

	var v User
	v.Bot = flags&(1<<14) != 0
	if v.ID, err = r.Int64(); err != nil {
		return User{}, err
	}
	if flags&1<<0 != 0 {
		v.HasHash = true
		if v.AccessHash, err = r.Int64(); err != nil {
			return User{}, err
		}
	}
	if flags&(1<<1) != 0 {
		if v.FirstName, err = r.String(); err != nil {
			return User{}, err
		}
	}
	if flags&(1<<2) != 0 {
		if _, err := r.String(); err != nil { // last_name
			return User{}, err
		}
	}
	if flags&(1<<3) != 0 {
		if v.Username, err = r.String(); err != nil {
			return User{}, err
		}
	}
	if flags&(1<<4) != 0 {
		if _, err := r.String(); err != nil { // phone
			return User{}, err
		}
	}
	if flags&(1<<5) != 0 {
		if err := skipUserProfilePhoto(r); err != nil {
			return User{}, err
		}
	}
	if flags&(1<<6) != 0 {
		if err := skipUserStatus(r); err != nil {
			return User{}, err
		}
	}
	if flags&(1<<14) != 0 {
		if _, err := r.Int32(); err != nil { // bot_info_version
			return User{}, err
		}
	}
	if flags&(1<<18) != 0 {
		if err := skipRestrictionReasons(r); err != nil {
			return User{}, err
		}
	}
	if flags&(1<<19) != 0 {
		if _, err := r.String(); err != nil { // bot_inline_placeholder
			return User{}, err
		}
	}
	if flags&(1<<22) != 0 {
		if _, err := r.String(); err != nil { // lang_code
			return User{}, err
		}
	}
	return v, nil
}

// Chat carries the identity and access hash for a basic group or channel,
// whichever constructor produced it.
type Chat struct {
	ID         int64
	AccessHash int64
	HasHash    bool
	Channel    bool
	Megagroup  bool
	Forbidden  bool
}

// DecodeChat reads any variant in the Chat boxed type this client needs:
// chatEmpty, chat, chatForbidden, channel, channelForbidden. Every field
// is consumed so the cursor lands correctly on the next sibling of a
// Vector<Chat>.
func DecodeChat(r *tlcodec.Reader) (Chat, error) {
	id, err := r.Uint32()
	if err != nil {
		return Chat{}, err
	}
	switch id {
	case idChatEmpty:
		cid, err := r.Int64()
		if err != nil {
			return Chat{}, err
		}
		return Chat{ID: cid}, nil
	case idChat:
		return decodeChatFields(r)
	case idChatForbidden:
		cid, err := r.Int64()
		if err != nil {
			return Chat{}, err
		}
		if _, err := r.String(); err != nil { // title
			return Chat{}, err
		}
		return Chat{ID: cid, Forbidden: true}, nil
	case idChannel:
		return decodeChannelFields(r, false)
	case idChannelForbidden:
		return decodeChannelFields(r, true)
	default:
		return Chat{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

func decodeChatFields(r *tlcodec.Reader) (Chat, error) {
	flags, err := r.Int32()
	if err != nil {
		return Chat{}, err
	}
	var v Chat
	if v.ID, err = r.Int64(); err != nil {
		return Chat{}, err
	}
	if _, err := r.String(); err != nil { // title
		return Chat{}, err
	}
	if err := skipChatPhoto(r); err != nil {
		return Chat{}, err
	}
	if _, err := r.Int32(); err != nil { // participants_count
		return Chat{}, err
	}
	if _, err := r.Int32(); err != nil { // date
		return Chat{}, err
	}
	if _, err := r.Int32(); err != nil { // version
		return Chat{}, err
	}
	if flags&1<<6 != 0 {
		if _, err := r.Int32(); err != nil { // migrated_to InputChannel constructor id...
			return Chat{}, err
		}
		if _, err := r.Int64(); err != nil { // channel_id
			return Chat{}, err
		}
		if _, err := r.Int64(); err != nil { // access_hash
			return Chat{}, err
		}
	}
	if flags&1<<14 != 0 {
		if err := skipChatAdminRights(r); err != nil {
			return Chat{}, err
		}
	}
	if flags&1<<18 != 0 {
		if err := skipChatBannedRights(r); err != nil {
			return Chat{}, err
		}
	}
	return v, nil
}

func decodeChannelFields(r *tlcodec.Reader, forbidden bool) (Chat, error) {
	flags, err := r.Int32()
	if err != nil {
		return Chat{}, err
	}
	var v Chat
	v.Channel = true
	v.Forbidden = forbidden
	v.Megagroup = flags&1<<8 != 0
	if v.ID, err = r.Int64(); err != nil {
		return Chat{}, err
	}
	if flags&1<<13 != 0 {
		v.HasHash = true
		if v.AccessHash, err = r.Int64(); err != nil {
			return Chat{}, err
		}
	}
	if _, err := r.String(); err != nil { // title
		return Chat{}, err
	}
	if flags&1<<6 != 0 {
		if _, err := r.String(); err != nil { // username
			return Chat{}, err
		}
	}
	if forbidden {
		// channelForbidden carries until_date instead of the full
		// photo/date/version/rights tail that `channel` has.
		if flags&1<<16 != 0 {
			if _, err := r.Int32(); err != nil { // until_date
				return Chat{}, err
			}
		}
		return v, nil
	}
	if err := skipChatPhoto(r); err != nil {
		return Chat{}, err
	}
	if _, err := r.Int32(); err != nil { // date
		return Chat{}, err
	}
	if _, err := r.Int32(); err != nil { // version
		return Chat{}, err
	}
	if flags&1<<9 != 0 {
		if err := skipRestrictionReasons(r); err != nil {
			return Chat{}, err
		}
	}
	if flags&1<<14 != 0 {
		if err := skipChatAdminRights(r); err != nil {
			return Chat{}, err
		}
	}
	if flags&1<<15 != 0 {
		if err := skipChatBannedRights(r); err != nil {
			return Chat{}, err
		}
	}
	if flags&1<<18 != 0 {
		if err := skipChatBannedRights(r); err != nil {
			return Chat{}, err
		}
	}
	if flags&1<<17 != 0 {
		if _, err := r.Int32(); err != nil { // participants_count
			return Chat{}, err
		}
	}
	return v, nil
}
