package tl

import "github.com/ankit-chaubey/layer/internal/tlcodec"

// Constructor IDs for the auth.* and account.* family used by the sign-in
// flow (spec §4.4 step 5, §7.3 login scenarios, §9 cross-DC authorization).
const (
	idCodeSettings              uint32 = 0xad253d78
	idAuthSendCode              uint32 = 0xa677244f
	idAuthSentCode              uint32 = 0x5e002502
	idAuthSignIn                uint32 = 0x8d52a951
	idAuthCheckPassword         uint32 = 0xd18b4d16
	idInputCheckPasswordEmpty   uint32 = 0x9880f658
	idInputCheckPasswordSRP     uint32 = 0xd27ff082
	idAuthExportAuthorization   uint32 = 0xe5bfffcd
	idAuthExportedAuthorization uint32 = 0xb434e0b0
	idAuthImportAuthorization   uint32 = 0xe3ef9613
	idAuthImportBotAuthorization uint32 = 0x67a3ff2c
	idAuthAuthorization         uint32 = 0x2ea2c0d4
	idAuthAuthorizationSignUpRequired uint32 = 0x44747e9a
	idAccountGetPassword        uint32 = 0x548a30f5
	idAccountPassword           uint32 = 0x3d5b65eb
	idAccountPasswordInputAlgoSHA256SHA256PBKDF2HMACSHA512IterModPow uint32 = 0xd45ab096
)

// CodeSettings is code_settings, the flags struct accompanying
// auth.sendCode. Only the fields this client ever sets are exposed.
type CodeSettings struct {
	AllowFlashCall   bool
	CurrentNumber    bool
	AllowAppHash     bool
	AllowMissedCall  bool
}

// Encode serializes code_settings.
func (s CodeSettings) Encode(w *tlcodec.Writer) {
	var flags int32
	if s.AllowFlashCall {
		flags |= 1 << 0
	}
	if s.CurrentNumber {
		flags |= 1 << 1
	}
	if s.AllowAppHash {
		flags |= 1 << 4
	}
	if s.AllowMissedCall {
		flags |= 1 << 5
	}
	w.PutUint32(idCodeSettings)
	w.PutInt32(flags)
	if s.CurrentNumber {
		w.PutBool(true)
	}
}

// SendCode is auth.sendCode, requesting a login code for a phone number
// (spec §7.3 step 1).
type SendCode struct {
	PhoneNumber string
	APIID       int32
	APIHash     string
	Settings    CodeSettings
}

// Encode serializes auth.sendCode.
func (s SendCode) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAuthSendCode)
	w.PutString(s.PhoneNumber)
	w.PutInt32(s.APIID)
	w.PutString(s.APIHash)
	s.Settings.Encode(w)
}

// SentCode is auth.sentCode, the opaque login token carrying the
// phone_code_hash the client must echo back to auth.signIn.
type SentCode struct {
	PhoneCodeHash string
	Timeout       int32
	HasTimeout    bool
}

// DecodeSentCode reads a boxed auth.sentCode constructor. The CodeType and
// NextType union fields are consumed (their constructor IDs skipped) but
// not exposed since this client only needs the hash and retry timing.
func DecodeSentCode(r *tlcodec.Reader) (SentCode, error) {
	id, err := r.Uint32()
	if err != nil {
		return SentCode{}, err
	}
	if id != idAuthSentCode {
		return SentCode{}, tlcodec.NewUnexpectedConstructor(id)
	}
	flags, err := r.Int32()
	if err != nil {
		return SentCode{}, err
	}
	if _, err := r.Uint32(); err != nil { // auth.SentCodeType union constructor id
		return SentCode{}, err
	}
	var v SentCode
	if v.PhoneCodeHash, err = r.String(); err != nil {
		return SentCode{}, err
	}
	if flags&1<<1 != 0 {
		if _, err := r.Uint32(); err != nil { // next_type union constructor id
			return SentCode{}, err
		}
	}
	if flags&1<<2 != 0 {
		v.HasTimeout = true
		if v.Timeout, err = r.Int32(); err != nil {
			return SentCode{}, err
		}
	}
	return v, nil
}

// SignIn is auth.signIn, completing a login with the code received via SMS
// or another channel (spec §7.3 step 2).
type SignIn struct {
	PhoneNumber   string
	PhoneCodeHash string
	PhoneCode     string
}

// Encode serializes auth.signIn.
func (s SignIn) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAuthSignIn)
	w.PutInt32(1 << 0) // flags: phone_code present
	w.PutString(s.PhoneNumber)
	w.PutString(s.PhoneCodeHash)
	w.PutString(s.PhoneCode)
}

// InputCheckPasswordSRP is input_check_password_srp, the SRP proof
// (M1, g_a) sent to auth.checkPassword once a two-factor password
// challenge has been solved locally (spec §7.3 step 3).
type InputCheckPasswordSRP struct {
	SRPID int64
	A     [256]byte
	M1    [32]byte
}

// Encode serializes input_check_password_srp.
func (p InputCheckPasswordSRP) Encode(w *tlcodec.Writer) {
	w.PutUint32(idInputCheckPasswordSRP)
	w.PutInt64(p.SRPID)
	w.PutBytes(p.A[:])
	w.PutBytes(p.M1[:])
}

// CheckPassword is auth.checkPassword.
type CheckPassword struct {
	Password InputCheckPasswordSRP
}

// Encode serializes auth.checkPassword.
func (c CheckPassword) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAuthCheckPassword)
	c.Password.Encode(w)
}

// Authorization is the successful outcome of a sign-in RPC: either
// auth.authorization (logged in) or auth.authorizationSignUpRequired (the
// phone number has no account yet).
type Authorization struct {
	SignUpRequired bool
	UserID         int64
	FirstName      string
	LastName       string
}

// DecodeAuthorization reads either auth.authorization or
// auth.authorizationSignUpRequired. Only the fields this client surfaces
// (spec §7.3 returns a display name on success) are extracted; the full
// User payload is left for internal/tlgen-generated code to decode in
// full where needed.
func DecodeAuthorization(r *tlcodec.Reader) (Authorization, error) {
	id, err := r.Uint32()
	if err != nil {
		return Authorization{}, err
	}
	switch id {
	case idAuthAuthorizationSignUpRequired:
		flags, err := r.Int32()
		if err != nil {
			return Authorization{}, err
		}
		if flags&1<<0 != 0 {
			if _, err := r.String(); err != nil { // terms_of_service
				return Authorization{}, err
			}
		}
		return Authorization{SignUpRequired: true}, nil
	case idAuthAuthorization:
		// auth.authorization carries a full User object after its flags,
		// which this representative subset does not decode; callers that
		// need the signed-in user's fields should route through
		// internal/tlgen-generated decoding instead.
		return Authorization{}, errUnsupportedAuthorizationUser
	default:
		return Authorization{}, tlcodec.NewUnexpectedConstructor(id)
	}
}

var errUnsupportedAuthorizationUser = tlDecodeError("tl: auth.authorization user payload requires full schema decoding")

// ErrAuthorizationUserPayload is the sentinel DecodeAuthorization returns
// for a successful auth.authorization whose embedded User this
// representative subset does not decode. Callers may treat it as "signed
// in, display name unavailable without the full generated schema" rather
// than a failure.
var ErrAuthorizationUserPayload error = errUnsupportedAuthorizationUser

type tlDecodeError string

func (e tlDecodeError) Error() string { return string(e) }

// ExportAuthorization is auth.exportAuthorization, issuing a one-shot
// cross-DC authorization token from the home DC (spec §9).
type ExportAuthorization struct {
	DCID int32
}

// Encode serializes auth.exportAuthorization.
func (e ExportAuthorization) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAuthExportAuthorization)
	w.PutInt32(e.DCID)
}

// ExportedAuthorization is auth.exportedAuthorization, the token returned
// by ExportAuthorization and consumed by ImportAuthorization on the target
// DC.
type ExportedAuthorization struct {
	ID    int64
	Bytes []byte
}

// DecodeExportedAuthorization reads a boxed auth.exportedAuthorization
// constructor.
func DecodeExportedAuthorization(r *tlcodec.Reader) (ExportedAuthorization, error) {
	id, err := r.Uint32()
	if err != nil {
		return ExportedAuthorization{}, err
	}
	if id != idAuthExportedAuthorization {
		return ExportedAuthorization{}, tlcodec.NewUnexpectedConstructor(id)
	}
	var v ExportedAuthorization
	if v.ID, err = r.Int64(); err != nil {
		return ExportedAuthorization{}, err
	}
	if v.Bytes, err = r.Bytes(); err != nil {
		return ExportedAuthorization{}, err
	}
	return v, nil
}

// ImportAuthorization is auth.importAuthorization, redeeming a token from
// ExportAuthorization on the target DC (spec §9).
type ImportAuthorization struct {
	ID    int64
	Bytes []byte
}

// Encode serializes auth.importAuthorization.
func (i ImportAuthorization) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAuthImportAuthorization)
	w.PutInt64(i.ID)
	w.PutBytes(i.Bytes)
}

// ImportBotAuthorization is auth.importBotAuthorization, the bot-token
// sign-in alternative to the SMS/email code flow (spec §7.3 step 4).
type ImportBotAuthorization struct {
	APIID        int32
	APIHash      string
	BotAuthToken string
}

// Encode serializes auth.importBotAuthorization.
func (b ImportBotAuthorization) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAuthImportBotAuthorization)
	w.PutInt32(0) // flags, unused
	w.PutInt32(b.APIID)
	w.PutString(b.APIHash)
	w.PutString(b.BotAuthToken)
}

// PasswordAlgoSRP is the current 2FA key-derivation parameters returned by
// account.getPassword, sufficient to run the SRP exchange (spec §7.3
// PasswordRequired branch).
type PasswordAlgoSRP struct {
	Salt1 []byte
	Salt2 []byte
	G     int32
	P     []byte
}

// Password is account.password, the 2FA challenge state.
type Password struct {
	HasPassword  bool
	Algo         PasswordAlgoSRP
	SRPB         []byte
	SRPID        int64
	Hint         string
	HasRecovery  bool
}

// DecodePassword reads a boxed account.password constructor.
func DecodePassword(r *tlcodec.Reader) (Password, error) {
	id, err := r.Uint32()
	if err != nil {
		return Password{}, err
	}
	if id != idAccountPassword {
		return Password{}, tlcodec.NewUnexpectedConstructor(id)
	}
	flags, err := r.Int32()
	if err != nil {
		return Password{}, err
	}
	var v Password
	v.HasPassword = flags&1<<0 != 0
	v.HasRecovery = flags&1<<1 != 0
	// has_secure_values:flags.3?true — bare flag, no bytes.
	if flags&1<<2 != 0 {
		algoID, err := r.Uint32()
		if err != nil {
			return Password{}, err
		}
		if algoID != idAccountPasswordInputAlgoSHA256SHA256PBKDF2HMACSHA512IterModPow {
			return Password{}, tlcodec.NewUnexpectedConstructor(algoID)
		}
		if v.Algo.Salt1, err = r.Bytes(); err != nil {
			return Password{}, err
		}
		if v.Algo.Salt2, err = r.Bytes(); err != nil {
			return Password{}, err
		}
		if v.Algo.G, err = r.Int32(); err != nil {
			return Password{}, err
		}
		if v.Algo.P, err = r.Bytes(); err != nil {
			return Password{}, err
		}
		if v.SRPB, err = r.Bytes(); err != nil {
			return Password{}, err
		}
		if v.SRPID, err = r.Int64(); err != nil {
			return Password{}, err
		}
	}
	if flags&1<<4 != 0 {
		if v.Hint, err = r.String(); err != nil {
			return Password{}, err
		}
	}
	if flags&1<<5 != 0 {
		if _, err := r.String(); err != nil { // email_unconfirmed_pattern
			return Password{}, err
		}
	}
	// pending_reset_date:flags.6?int, login_email_pattern:flags.7?string are
	// not needed by this client's password-solve flow.
	return v, nil
}

// GetPassword is account.getPassword, fetching the current 2FA challenge
// parameters.
type GetPassword struct{}

// Encode serializes account.getPassword.
func (GetPassword) Encode(w *tlcodec.Writer) {
	w.PutUint32(idAccountGetPassword)
}
