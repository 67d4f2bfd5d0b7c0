package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for help.getConfig and the DC bootstrap table it returns
// (spec §7.1/§7.2).
const (
	idHelpGetConfig uint32 = 0xc4f9186b
	idDcOption      uint32 = 0x18b7a10d
	idConfig        uint32 = 0xcc1a010f
)

// DcOptionFlags bit positions within DcOption's flags field.
const (
	DcOptionFlagIPv6      = 1 << 0
	DcOptionFlagMediaOnly = 1 << 1
	DcOptionFlagTCPOOnly  = 1 << 2
	DcOptionFlagCDN       = 1 << 3
	DcOptionFlagStatic    = 1 << 4
)

// DcOption is dc_option, one entry in the datacenter address table returned
// by help.getConfig.
type DcOption struct {
	Flags   int32
	ID      int32
	IPAddr  string
	Port    int32
	Secret  []byte
}

// IPv6 reports whether this option's address is IPv6.
func (o DcOption) IPv6() bool { return o.Flags&DcOptionFlagIPv6 != 0 }

// MediaOnly reports whether this option serves media uploads/downloads only.
func (o DcOption) MediaOnly() bool { return o.Flags&DcOptionFlagMediaOnly != 0 }

// TCPOOnly reports whether this option requires obfuscated transport.
func (o DcOption) TCPOOnly() bool { return o.Flags&DcOptionFlagTCPOOnly != 0 }

// CDN reports whether this option is a CDN-only datacenter.
func (o DcOption) CDN() bool { return o.Flags&DcOptionFlagCDN != 0 }

// Usable reports whether this option is a plain, general-purpose endpoint
// suitable for opening a regular authenticated session: not media-only,
// not CDN-only, and not forcing obfuscated-only transport (spec §7.2 DC
// pool bootstrap filtering).
func (o DcOption) Usable() bool {
	return !o.MediaOnly() && !o.CDN() && !o.TCPOOnly()
}

// DecodeDcOption reads a boxed dc_option constructor.
func DecodeDcOption(r *tlcodec.Reader) (DcOption, error) {
	id, err := r.Uint32()
	if err != nil {
		return DcOption{}, err
	}
	if id != idDcOption {
		return DcOption{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v DcOption
	if v.Flags, err = r.Int32(); err != nil {
		return DcOption{}, err
	}
	if v.ID, err = r.Int32(); err != nil {
		return DcOption{}, err
	}
	if v.IPAddr, err = r.String(); err != nil {
		return DcOption{}, err
	}
	if v.Port, err = r.Int32(); err != nil {
		return DcOption{}, err
	}
	if v.Flags&DcOptionFlagStatic != 0 {
		if v.Secret, err = r.Bytes(); err != nil {
			return DcOption{}, err
		}
	}
	return v, nil
}

// Config is config, the server configuration snapshot returned by
// help.getConfig. Only the fields this client acts on are carried; the
// rest of Telegram's config payload is read and discarded.
type Config struct {
	Date              int32
	Expires           int32
	ThisDC            int32
	DCOptions         []DcOption
	ChatSizeMax       int32
	MegagroupSizeMax  int32
	ForwardedCountMax int32
}

// DecodeConfig reads a boxed config constructor, skipping fields this
// client does not use via their known TL encodings.
func DecodeConfig(r *tlcodec.Reader) (Config, error) {
	id, err := r.Uint32()
	if err != nil {
		return Config{}, err
	}
	if id != idConfig {
		return Config{}, tlcodec.NewUnexpectedConstructor(id)
	}
	flags, err := r.Int32()
	if err != nil {
		return Config{}, err
	}
	var v Config
	// phone_calls_enabled:flags.1?true, default_p2p_contacts:flags.3?true,
	// preload_featured_stickers:flags.4?true, ignore_phone_entities:flags.5?true,
	// revoke_pm_inbox:flags.6?true, blocked_mode:flags.8?true,
	// force_try_ipv6:flags.9?true are all bare flags, no bytes on the wire.
	if v.Date, err = r.Int32(); err != nil {
		return Config{}, err
	}
	if v.Expires, err = r.Int32(); err != nil {
		return Config{}, err
	}
	if _, err = r.Bool(); err != nil { // test_mode
		return Config{}, err
	}
	if v.ThisDC, err = r.Int32(); err != nil {
		return Config{}, err
	}
	n, err := r.VectorHeader()
	if err != nil {
		return Config{}, err
	}
	v.DCOptions = make([]DcOption, n)
	for i := range v.DCOptions {
		if v.DCOptions[i], err = DecodeDcOption(r); err != nil {
			return Config{}, err
		}
	}
	if _, err = r.String(); err != nil { // dc_txt_domain_name
		return Config{}, err
	}
	if v.ChatSizeMax, err = r.Int32(); err != nil {
		return Config{}, err
	}
	if v.MegagroupSizeMax, err = r.Int32(); err != nil {
		return Config{}, err
	}
	if v.ForwardedCountMax, err = r.Int32(); err != nil {
		return Config{}, err
	}
	// Remaining fields (online_update_period_ms through reactions_default
	// and the conditional flag-gated int/string fields) are not consumed
	// by this client; callers that need the full payload should decode
	// help.getConfig's response through internal/tlgen instead.
	_ = flags
	return v, nil
}

// GetConfig is help.getConfig, the bootstrap RPC fetching the current DC
// table (spec §7.1).
type GetConfig struct{}

// Encode serializes help.getConfig.
func (GetConfig) Encode(w *tlcodec.Writer) {
	w.PutUint32(idHelpGetConfig)
}
