package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ankit-chaubey/layer/internal/crypto"
	"github.com/ankit-chaubey/layer/internal/rpc"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// LoginToken is the opaque handle RequestLoginCode returns, carrying the
// phone_code_hash SignIn must echo back (spec §6 login flow step 1).
type LoginToken struct {
	PhoneNumber   string
	PhoneCodeHash string
}

// PasswordToken carries the 2FA challenge parameters CheckPassword needs to
// run the SRP exchange.
type PasswordToken struct {
	Algo  tl.PasswordAlgoSRP
	SRPB  []byte
	SRPID int64
	Hint  string
}

// SignInResult is a completed sign-in's outcome: the logged-in user's id and
// name, where the server response decoded far enough to extract them.
type SignInResult struct {
	UserID    int64
	FirstName string
	LastName  string
}

// PasswordRequired is returned by SignIn when the account has two-factor
// authentication enabled. Pass Token to CheckPassword to complete sign-in.
type PasswordRequired struct {
	Token *PasswordToken
}

func (PasswordRequired) Error() string { return "client: two-factor password required" }

// InvalidCode is returned by SignIn when the server rejects the login code
// (any PHONE_CODE_* rpc error).
type InvalidCode struct {
	Err *rpc.Error
}

func (e InvalidCode) Error() string { return fmt.Sprintf("client: invalid login code: %v", e.Err) }
func (e InvalidCode) Unwrap() error { return e.Err }

// ErrSignUpRequired is returned by SignIn when the phone number has no
// associated account yet.
var ErrSignUpRequired = errors.New("client: phone number is not registered")

// RequestLoginCode is auth.sendCode, requesting a login code for phone
// (spec §6 login flow step 1). *_MIGRATE_N redirects are followed
// transparently and move the client's home DC.
func (c *Client) RequestLoginCode(ctx context.Context, phone string) (*LoginToken, error) {
	res, err := c.callPreAuth(ctx, "auth.sendCode", tl.SendCode{
		PhoneNumber: phone,
		APIID:       c.cfg.API.ID,
		APIHash:     c.cfg.API.Hash,
		Settings:    tl.CodeSettings{AllowAppHash: true},
	})
	if err != nil {
		return nil, err
	}
	sent, err := tl.DecodeSentCode(tlcodec.NewReader(res.Payload))
	if err != nil {
		return nil, fmt.Errorf("client: decode auth.sentCode: %w", err)
	}
	return &LoginToken{PhoneNumber: phone, PhoneCodeHash: sent.PhoneCodeHash}, nil
}

// SignIn is auth.signIn, completing a login with the code the user received
// (spec §6 login flow step 2). It returns PasswordRequired if the account
// has 2FA enabled, InvalidCode if the code was rejected, or
// ErrSignUpRequired if the phone number is new.
func (c *Client) SignIn(ctx context.Context, token *LoginToken, code string) (*SignInResult, error) {
	res, err := c.callPreAuth(ctx, "auth.signIn", tl.SignIn{
		PhoneNumber:   token.PhoneNumber,
		PhoneCodeHash: token.PhoneCodeHash,
		PhoneCode:     code,
	})
	if err != nil {
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			if rpcErr.Matches("PHONE_CODE_*") {
				return nil, InvalidCode{Err: rpcErr}
			}
			if rpcErr.Matches("SESSION_PASSWORD_NEEDED") {
				pt, perr := c.fetchPasswordToken(ctx)
				if perr != nil {
					return nil, perr
				}
				return nil, PasswordRequired{Token: pt}
			}
		}
		return nil, err
	}
	return c.finishSignIn(tlcodec.NewReader(res.Payload))
}

// CheckPassword completes a 2FA-protected sign-in by solving the SRP
// challenge carried in token (spec §6 login flow step 3, spec §4.4).
func (c *Client) CheckPassword(ctx context.Context, token *PasswordToken, password string) (*SignInResult, error) {
	a, m1, err := crypto.SolveSRP(password, crypto.SRPParams{
		G:     token.Algo.G,
		P:     token.Algo.P,
		Salt1: token.Algo.Salt1,
		Salt2: token.Algo.Salt2,
		B:     token.SRPB,
	})
	if err != nil {
		return nil, fmt.Errorf("client: solve srp challenge: %w", err)
	}

	res, err := c.callPreAuth(ctx, "auth.checkPassword", tl.CheckPassword{
		Password: tl.InputCheckPasswordSRP{SRPID: token.SRPID, A: a, M1: m1},
	})
	if err != nil {
		return nil, err
	}
	return c.finishSignIn(tlcodec.NewReader(res.Payload))
}

// BotSignIn is auth.importBotAuthorization, the bot-token alternative to the
// phone/code flow (spec §6 login flow step 4).
func (c *Client) BotSignIn(ctx context.Context, botToken string) (*SignInResult, error) {
	res, err := c.callPreAuth(ctx, "auth.importBotAuthorization", tl.ImportBotAuthorization{
		APIID:        c.cfg.API.ID,
		APIHash:      c.cfg.API.Hash,
		BotAuthToken: botToken,
	})
	if err != nil {
		return nil, err
	}
	return c.finishSignIn(tlcodec.NewReader(res.Payload))
}

func (c *Client) finishSignIn(r *tlcodec.Reader) (*SignInResult, error) {
	auth, err := tl.DecodeAuthorization(r)
	switch {
	case errors.Is(err, tl.ErrAuthorizationUserPayload):
		return &SignInResult{}, nil
	case err != nil:
		return nil, fmt.Errorf("client: decode auth.authorization: %w", err)
	case auth.SignUpRequired:
		return nil, ErrSignUpRequired
	default:
		return &SignInResult{UserID: auth.UserID, FirstName: auth.FirstName, LastName: auth.LastName}, nil
	}
}

func (c *Client) fetchPasswordToken(ctx context.Context) (*PasswordToken, error) {
	res, err := c.callPreAuth(ctx, "account.getPassword", tl.GetPassword{})
	if err != nil {
		return nil, err
	}
	pw, err := tl.DecodePassword(tlcodec.NewReader(res.Payload))
	if err != nil {
		return nil, fmt.Errorf("client: decode account.password: %w", err)
	}
	if !pw.HasPassword {
		return nil, errors.New("client: server reports SESSION_PASSWORD_NEEDED but no password is set")
	}
	return &PasswordToken{Algo: pw.Algo, SRPB: pw.SRPB, SRPID: pw.SRPID, Hint: pw.Hint}, nil
}

// callPreAuth issues an RPC against the current home DC, following
// *_MIGRATE_N redirects by permanently moving the home DC rather than
// through Authorize's export/import (there is nothing to export before a
// session is logged in).
func (c *Client) callPreAuth(ctx context.Context, method string, body encodable) (rpc.Result, error) {
	for {
		dcID := c.pool.HomeDC()
		entry, err := c.pool.Connect(ctx, dcID)
		if err != nil {
			return rpc.Result{}, err
		}
		res, err := entry.Call(ctx, method, body)
		if err != nil {
			return rpc.Result{}, err
		}
		if res.Err != nil {
			var rpcErr *rpc.Error
			if errors.As(res.Err, &rpcErr) {
				if migrate, ok := rpc.AsMigrate(rpcErr); ok {
					c.pool.SetHomeDC(migrate.DCID)
					continue
				}
			}
			return res, res.Err
		}
		return res, nil
	}
}
