// Package handshake implements the sans-IO MTProto authorization key
// exchange (spec §4.4/§4.5): a pure state machine whose Step functions each
// take the previous state plus the server's response and return the next
// request to send plus the next state. The caller owns all I/O.
//
//	req1, s1, err := handshake.Step1()
//	// send req1, receive resp1
//	req2, s2, err := handshake.Step2(s1, resp1)
//	// send req2, receive resp2
//	req3, s3, err := handshake.Step3(s2, resp2)
//	// send req3, receive resp3
//	done, err := handshake.Finish(s3, resp3)
//	// done.AuthKey is ready
package handshake

import (
	"crypto/rand"
	"crypto/sha1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ankit-chaubey/layer/internal/crypto"
	"github.com/ankit-chaubey/layer/internal/tlcodec"
	"github.com/ankit-chaubey/layer/tl"
)

// Sentinel errors for the handshake's verification steps.
var (
	ErrNonceMismatch        = errors.New("handshake: nonce mismatch")
	ErrServerNonceMismatch  = errors.New("handshake: server_nonce mismatch")
	ErrNewNonceHashMismatch = errors.New("handshake: new_nonce_hash mismatch")
	ErrAnswerHashMismatch   = errors.New("handshake: encrypted_answer hash mismatch")
	ErrInvalidPQSize        = errors.New("handshake: pq field is not 8 bytes")
	ErrUnknownFingerprint   = errors.New("handshake: no known RSA fingerprint offered by server")
	ErrDHParamsFail         = errors.New("handshake: server returned server_DH_params_fail")
	ErrNotPadded            = errors.New("handshake: encrypted_answer is not 16-byte aligned")
	ErrGParameterOutOfRange = errors.New("handshake: DH parameter outside Telegram's required range")
	ErrDHGenRetry           = errors.New("handshake: server requested dh_gen_retry")
	ErrDHGenFail            = errors.New("handshake: server returned dh_gen_fail")
)

// Fixed RSA keys used to encrypt PQInnerData, keyed by their published
// fingerprint. Telegram publishes a small, fixed set of these; a real
// deployment's production and test DCs both appear here.
var rsaKeysByFingerprint = map[int64]*crypto.RSAKey{
	-3414540481677951611: mustRSAKey(
		"293795981706693370229861771494561285653884311200588637681625564"+
			"240475121913308474551465763444877644086617018905050662086321691"+
			"122695810637742931025773084905312827484659861398809772803022427"+
			"728329725394035313160108704012876427630091361567343395380425024"+
			"193889287359033894517727302452530629633841088128420798875389763"+
			"604652909461396386914916062099570836476454855996319192747663615"+
			"955633778034897140982517446405334423701359108810182097749467210"+
			"509584293428076654573384828809574217079944388301239431309115013"+
			"843331317877374435868468779972014486325557807783825502498215169"+
			"806323",
		"65537"),
	-5595554452916591101: mustRSAKey(
		"253428894488404155649716895907134732068988477590847790525820265"+
			"945460224638539405858852159511684919657082226493991806038180742"+
			"006204637761354248846321625124031637930839216416315647409595294"+
			"193595958529411668489405859523376133330223960965841179548922160"+
			"312292373029437018775884567383353986024616752250817918203931537"+
			"575049526362349513232378200365435810478269061209279724873668052"+
			"921157922314236842612623303943247507854509425897517553901566477"+
			"514607193514399690599495696153028090507215003302390050778898553"+
			"239175099482557220816446894421272976054225797071426466607688253"+
			"02832201908302295573257427896031830742328565032949",
		"65537"),
}

func mustRSAKey(n, e string) *crypto.RSAKey {
	k, err := crypto.NewRSAKey(n, e)
	if err != nil {
		panic(err)
	}
	return k
}

func keyForFingerprint(fp int64) (*crypto.RSAKey, bool) {
	k, ok := rsaKeysByFingerprint[fp]
	return k, ok
}

// Step1State is the opaque state carried from Step1 to Step2.
type Step1State struct {
	nonce [16]byte
}

// Step2State is carried from Step2 to Step3.
type Step2State struct {
	nonce       [16]byte
	serverNonce [16]byte
	newNonce    [32]byte
}

// Step3State is carried from Step3 to Finish.
type Step3State struct {
	nonce       [16]byte
	serverNonce [16]byte
	newNonce    [32]byte
	gab         *big.Int
	timeOffset  int32
}

// Finished is the successful result of a complete handshake.
type Finished struct {
	AuthKey    crypto.AuthKey
	TimeOffset int32
	FirstSalt  int64
}

// Step1 generates the req_pq_multi request that begins the handshake.
func Step1() (tl.ReqPQMulti, Step1State, error) {
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return tl.ReqPQMulti{}, Step1State{}, fmt.Errorf("handshake: rand.Read: %w", err)
	}
	return tl.ReqPQMulti{Nonce: nonce}, Step1State{nonce: nonce}, nil
}

// Step2 processes ResPQ and generates req_DH_params.
func Step2(state Step1State, resp tl.ResPQ) (tl.ReqDHParams, Step2State, error) {
	if resp.Nonce != state.nonce {
		return tl.ReqDHParams{}, Step2State{}, ErrNonceMismatch
	}
	if len(resp.PQ) != 8 {
		return tl.ReqDHParams{}, Step2State{}, ErrInvalidPQSize
	}

	var rnd [256]byte
	if _, err := rand.Read(rnd[:]); err != nil {
		return tl.ReqDHParams{}, Step2State{}, fmt.Errorf("handshake: rand.Read: %w", err)
	}
	return doStep2(state, resp, &rnd)
}

func doStep2(state Step1State, resp tl.ResPQ, rnd *[256]byte) (tl.ReqDHParams, Step2State, error) {
	pq := beBytesToUint64(resp.PQ)
	p, q := crypto.Factorize(pq)

	var newNonce [32]byte
	copy(newNonce[:], rnd[:32])

	var rnd224 [224]byte
	copy(rnd224[:], rnd[32:])

	pBytes := trimLeadingZeros(uint64ToBE(p))
	qBytes := trimLeadingZeros(uint64ToBE(q))

	inner := tl.PQInnerData{
		PQ:          resp.PQ,
		P:           pBytes,
		Q:           qBytes,
		Nonce:       state.nonce,
		ServerNonce: resp.ServerNonce,
		NewNonce:    newNonce,
	}
	w := tlcodec.NewWriter(256)
	inner.Encode(w)

	var fingerprint int64
	var key *crypto.RSAKey
	found := false
	for _, fp := range resp.ServerPublicKeyFingerprints {
		if k, ok := keyForFingerprint(fp); ok {
			fingerprint, key, found = fp, k, true
			break
		}
	}
	if !found {
		return tl.ReqDHParams{}, Step2State{}, ErrUnknownFingerprint
	}

	ciphertext, err := crypto.RSAEncryptHashed(w.Bytes(), key, &rnd224)
	if err != nil {
		return tl.ReqDHParams{}, Step2State{}, err
	}

	req := tl.ReqDHParams{
		Nonce:                state.nonce,
		ServerNonce:          resp.ServerNonce,
		P:                    pBytes,
		Q:                    qBytes,
		PublicKeyFingerprint: fingerprint,
		EncryptedData:        ciphertext,
	}
	return req, Step2State{nonce: state.nonce, serverNonce: resp.ServerNonce, newNonce: newNonce}, nil
}

// Step3 processes ServerDHParams and generates set_client_DH_params.
func Step3(state Step2State, resp tl.ServerDHParams) (tl.SetClientDHParams, Step3State, error) {
	var rnd [272]byte
	if _, err := rand.Read(rnd[:]); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, fmt.Errorf("handshake: rand.Read: %w", err)
	}
	now := int32(time.Now().Unix())
	return doStep3(state, resp, &rnd, now)
}

func doStep3(state Step2State, resp tl.ServerDHParams, rnd *[272]byte, now int32) (tl.SetClientDHParams, Step3State, error) {
	if resp.Fail != nil {
		f := resp.Fail
		if f.Nonce != state.nonce {
			return tl.SetClientDHParams{}, Step3State{}, ErrNonceMismatch
		}
		if f.ServerNonce != state.serverNonce {
			return tl.SetClientDHParams{}, Step3State{}, ErrServerNonceMismatch
		}
		digest := sha1.Sum(state.newNonce[:])
		var expected [16]byte
		copy(expected[:], digest[4:])
		if f.NewNonceHash != expected {
			return tl.SetClientDHParams{}, Step3State{}, ErrNewNonceHashMismatch
		}
		return tl.SetClientDHParams{}, Step3State{}, ErrDHParamsFail
	}

	ok := resp.Ok
	if ok == nil {
		return tl.SetClientDHParams{}, Step3State{}, fmt.Errorf("handshake: empty ServerDHParams response")
	}
	if ok.Nonce != state.nonce {
		return tl.SetClientDHParams{}, Step3State{}, ErrNonceMismatch
	}
	if ok.ServerNonce != state.serverNonce {
		return tl.SetClientDHParams{}, Step3State{}, ErrServerNonceMismatch
	}
	if len(ok.EncryptedAnswer)%16 != 0 {
		return tl.SetClientDHParams{}, Step3State{}, ErrNotPadded
	}

	key, iv := crypto.GenerateKeyDataFromNonce(state.serverNonce, state.newNonce)
	plain := append([]byte(nil), ok.EncryptedAnswer...)
	if err := crypto.IGEDecrypt(plain, key[:], iv[:]); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}

	gotHash := plain[:20]
	r := tlcodec.NewReader(plain[20:])
	inner, err := tl.DecodeServerDHInnerData(r)
	if err != nil {
		return tl.SetClientDHParams{}, Step3State{}, fmt.Errorf("handshake: decoding server_DH_inner_data: %w", err)
	}

	innerSum := sha1.Sum(plain[20 : 20+r.Pos()])
	if !bytesEqual(gotHash, innerSum[:]) {
		return tl.SetClientDHParams{}, Step3State{}, ErrAnswerHashMismatch
	}
	if inner.Nonce != state.nonce {
		return tl.SetClientDHParams{}, Step3State{}, ErrNonceMismatch
	}
	if inner.ServerNonce != state.serverNonce {
		return tl.SetClientDHParams{}, Step3State{}, ErrServerNonceMismatch
	}

	dhPrime := new(big.Int).SetBytes(inner.DHPrime)
	g := big.NewInt(int64(inner.G))
	gA := new(big.Int).SetBytes(inner.GA)
	timeOffset := inner.ServerTime - now

	b := new(big.Int).SetBytes(rnd[:256])
	gB := new(big.Int).Exp(g, b, dhPrime)
	gab := new(big.Int).Exp(gA, b, dhPrime)

	one := big.NewInt(1)
	low := one
	high := new(big.Int).Sub(dhPrime, one)
	if err := checkInRange(g, low, high); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}
	if err := checkInRange(gA, low, high); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}
	if err := checkInRange(gB, low, high); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}
	safety := new(big.Int).Lsh(one, 2048-64)
	safeHigh := new(big.Int).Sub(dhPrime, safety)
	if err := checkInRange(gA, safety, safeHigh); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}
	if err := checkInRange(gB, safety, safeHigh); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}

	clientInner := tl.ClientDHInnerData{
		Nonce:       state.nonce,
		ServerNonce: state.serverNonce,
		RetryID:     0,
		GB:          gB.Bytes(),
	}
	cw := tlcodec.NewWriter(256)
	clientInner.Encode(cw)
	clientInnerBytes := cw.Bytes()

	digest := sha1.Sum(clientInnerBytes)
	padLen := (16 - ((20 + len(clientInnerBytes)) % 16)) % 16

	hashed := make([]byte, 0, 20+len(clientInnerBytes)+padLen)
	hashed = append(hashed, digest[:]...)
	hashed = append(hashed, clientInnerBytes...)
	hashed = append(hashed, rnd[256:256+padLen]...)

	if err := crypto.IGEEncrypt(hashed, key[:], iv[:]); err != nil {
		return tl.SetClientDHParams{}, Step3State{}, err
	}

	req := tl.SetClientDHParams{
		Nonce:         state.nonce,
		ServerNonce:   state.serverNonce,
		EncryptedData: hashed,
	}
	return req, Step3State{
		nonce:       state.nonce,
		serverNonce: state.serverNonce,
		newNonce:    state.newNonce,
		gab:         gab,
		timeOffset:  timeOffset,
	}, nil
}

// Finish processes Set_client_DH_params_answer and produces the finished
// AuthKey, or a handshake error (including ErrDHGenRetry, which callers may
// retry Step3 in response to by re-running with a fresh random b).
func Finish(state Step3State, resp tl.SetClientDHParamsAnswer) (Finished, error) {
	var nonce, serverNonce, hash [16]byte
	var num byte

	switch {
	case resp.Ok != nil:
		nonce, serverNonce, hash, num = resp.Ok.Nonce, resp.Ok.ServerNonce, resp.Ok.NewNonceHash1, 1
	case resp.Retry != nil:
		nonce, serverNonce, hash, num = resp.Retry.Nonce, resp.Retry.ServerNonce, resp.Retry.NewNonceHash2, 2
	case resp.Fail != nil:
		nonce, serverNonce, hash, num = resp.Fail.Nonce, resp.Fail.ServerNonce, resp.Fail.NewNonceHash3, 3
	default:
		return Finished{}, fmt.Errorf("handshake: empty SetClientDHParamsAnswer response")
	}

	if nonce != state.nonce {
		return Finished{}, ErrNonceMismatch
	}
	if serverNonce != state.serverNonce {
		return Finished{}, ErrServerNonceMismatch
	}

	var keyBytes [256]byte
	gabBytes := state.gab.Bytes()
	copy(keyBytes[256-len(gabBytes):], gabBytes)

	authKey := crypto.NewAuthKey(keyBytes)
	expectedHash := authKey.CalcNewNonceHash(state.newNonce, num)
	if hash != expectedHash {
		return Finished{}, ErrNewNonceHashMismatch
	}

	var saltBuf [8]byte
	for i := range saltBuf {
		saltBuf[i] = state.newNonce[i] ^ state.serverNonce[i]
	}
	firstSalt := int64(leUint64(saltBuf))

	switch num {
	case 1:
		return Finished{AuthKey: authKey, TimeOffset: state.timeOffset, FirstSalt: firstSalt}, nil
	case 2:
		return Finished{}, ErrDHGenRetry
	default:
		return Finished{}, ErrDHGenFail
	}
}

func checkInRange(v, low, high *big.Int) error {
	if low.Cmp(v) < 0 && v.Cmp(high) < 0 {
		return nil
	}
	return ErrGParameterOutOfRange
}

func beBytesToUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func uint64ToBE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}

func leUint64(b [8]byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
