package crypto

import "testing"

func TestFactorizeKnownVectors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		pq   uint64
		p, q uint64
	}{
		{1470626929934143021, 1206429347, 1218991343},
		{2363612107535801713, 1518968219, 1556064227},
	}
	for _, tc := range cases {
		p, q := Factorize(tc.pq)
		if p != tc.p || q != tc.q {
			t.Fatalf("Factorize(%d) = (%d, %d), want (%d, %d)", tc.pq, p, q, tc.p, tc.q)
		}
		if p*q != tc.pq {
			t.Fatalf("Factorize(%d): %d*%d != %d", tc.pq, p, q, tc.pq)
		}
	}
}
