package crypto

import "math/big"

// Factorize splits pq into its two prime factors (p, q) with p <= q, using
// Pollard's rho algorithm (Brent's cycle-detection variant). pq must be the
// product of exactly two distinct primes, as required by the PQ step of the
// MTProto handshake (spec §4.4/§4.5).
//
// It panics if none of the five fixed Brent-constant attempts below finds a
// nontrivial factor; in practice this never happens for a genuine two-prime
// product in the 64-bit range the handshake uses.
func Factorize(pq uint64) (p, q uint64) {
	n := new(big.Int).SetUint64(pq)
	n103 := new(big.Int).Div(n, big.NewInt(103))

	for _, attempt := range [...]int64{43, 47, 53, 59, 61} {
		c := new(big.Int).Mul(big.NewInt(attempt), n103)
		if p, q, ok := factorizeWith(n, c); ok {
			return p, q
		}
	}
	panic("crypto: factorize failed after fixed attempts")
}

func factorizeWith(pq, c *big.Int) (p, q uint64, ok bool) {
	two := big.NewInt(2)
	if new(big.Int).Mod(pq, two).Sign() == 0 {
		half := new(big.Int).Div(pq, two)
		return 2, half.Uint64(), true
	}

	y := new(big.Int).Div(new(big.Int).Mul(big.NewInt(3), pq), big.NewInt(7))
	m := new(big.Int).Div(new(big.Int).Mul(big.NewInt(7), pq), big.NewInt(13))
	g := big.NewInt(1)
	r := big.NewInt(1)
	qAcc := big.NewInt(1)
	x := new(big.Int)
	ys := new(big.Int)

	one := big.NewInt(1)
	tmp := new(big.Int)

	step := func(v *big.Int) *big.Int {
		tmp.Mul(v, v)
		tmp.Add(tmp, c)
		tmp.Mod(tmp, pq)
		return new(big.Int).Set(tmp)
	}

	for g.Cmp(one) == 0 {
		x.Set(y)
		for i := new(big.Int); i.Cmp(r) < 0; i.Add(i, one) {
			y = step(y)
		}
		k := big.NewInt(0)
		for k.Cmp(r) < 0 && g.Cmp(one) == 0 {
			ys.Set(y)
			remaining := new(big.Int).Sub(r, k)
			steps := m
			if remaining.Cmp(m) < 0 {
				steps = remaining
			}
			for i := new(big.Int); i.Cmp(steps) < 0; i.Add(i, one) {
				y = step(y)
				diff := absSub(x, y)
				qAcc.Mul(qAcc, diff)
				qAcc.Mod(qAcc, pq)
			}
			g = new(big.Int).GCD(nil, nil, qAcc, pq)
			k.Add(k, m)
		}
		r.Mul(r, two)
	}

	if g.Cmp(pq) == 0 {
		for {
			ys = step(ys)
			g = new(big.Int).GCD(nil, nil, absSub(x, ys), pq)
			if g.Cmp(one) > 0 {
				break
			}
		}
	}

	if g.Cmp(one) <= 0 {
		return 0, 0, false
	}
	other := new(big.Int).Div(pq, g)
	gv, ov := g.Uint64(), other.Uint64()
	if gv < ov {
		return gv, ov, true
	}
	return ov, gv, true
}

func absSub(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Sub(a, b)
	}
	return new(big.Int).Sub(b, a)
}
