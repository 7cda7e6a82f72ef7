// Package keyconv converts Ed25519 identity keys into X25519
// Diffie-Hellman keys, per RFC 8032 and the birational map between
// edwards25519 and curve25519. X3DH's DH1/DH2 terms run the long-term
// identity key through this conversion so one Ed25519 keypair serves
// both signing and key agreement.
//
// No library in this module's dependency set exposes edwards25519
// point decompression or the Edwards-to-Montgomery map (golang.org/x/
// crypto/curve25519 only operates on Montgomery u-coordinates already
// in hand); this package implements the RFC 8032 section 5.1.3 point
// decompression and the standard (1+y)/(1-y) birational map directly
// over math/big, the one place in this module hand-rolled modular
// arithmetic substitutes for a missing third-party primitive.
package keyconv

import (
	"crypto/sha512"
	"math/big"

	"safetalk/crypto/dh25519"
	"safetalk/crypto/identity"
	"safetalk/errs"
)

// p is the edwards25519/curve25519 field prime 2^255 - 19.
var p = func() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 255)
	return v.Sub(v, big.NewInt(19))
}()

// d is the edwards25519 curve parameter -121665/121666 mod p.
var d = func() *big.Int {
	num := big.NewInt(-121665)
	den := big.NewInt(121666)
	denInv := new(big.Int).ModInverse(den, p)
	v := new(big.Int).Mul(num, denInv)
	return v.Mod(v, p)
}()

// PrivateToX25519 derives the X25519 private scalar corresponding to an
// Ed25519 seed, per RFC 8032: SHA-512 the 32-byte seed, take the first
// 32 bytes, clamp them. The second half of the hash (used by Ed25519
// for nonce derivation) plays no role in the X25519 scalar.
func PrivateToX25519(priv identity.PrivateKey) dh25519.PrivateKey {
	h := sha512.Sum512(priv[:])
	var out dh25519.PrivateKey
	copy(out[:], h[:32])
	out[0] &= 248
	out[31] &= 127
	out[31] |= 64
	return out
}

// PublicToX25519 converts an Ed25519 public key (a compressed Edwards
// point) to the corresponding X25519 public key (a Montgomery
// u-coordinate), via decompression followed by the birational map
// u = (1+y)/(1-y) mod p. Returns errs.ErrInvalidKey if the compressed
// point does not decode to a valid curve point.
func PublicToX25519(pub identity.PublicKey) (dh25519.PublicKey, error) {
	var out dh25519.PublicKey

	y, _ := decompressEdwardsY(pub)

	// u depends only on y; recovering x here just rejects points that
	// aren't actually on the curve (an invalid compressed encoding).
	if _, err := recoverEdwardsX(y); err != nil {
		return out, err
	}

	one := big.NewInt(1)
	numerator := new(big.Int).Add(one, y)
	numerator.Mod(numerator, p)
	denominator := new(big.Int).Sub(one, y)
	denominator.Mod(denominator, p)

	denomInv := new(big.Int).ModInverse(denominator, p)
	if denomInv == nil {
		return out, errs.ErrInvalidKey
	}

	u := new(big.Int).Mul(numerator, denomInv)
	u.Mod(u, p)

	uBytes := u.Bytes()
	for i, j := 0, len(uBytes)-1; i < j; i, j = i+1, j-1 {
		uBytes[i], uBytes[j] = uBytes[j], uBytes[i]
	}
	copy(out[:], uBytes)
	return out, nil
}

// decompressEdwardsY extracts the y-coordinate and sign bit of x from a
// compressed 32-byte little-endian Edwards point per RFC 8032 section 5.1.3.
func decompressEdwardsY(compressed [32]byte) (y *big.Int, xSign int) {
	buf := make([]byte, 32)
	copy(buf, compressed[:])
	xSign = int(buf[31] >> 7)
	buf[31] &= 0x7f

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	y = new(big.Int).SetBytes(buf)
	return y, xSign
}

// recoverEdwardsX solves the edwards25519 curve equation
// -x^2 + y^2 = 1 + d*x^2*y^2 for x^2, then takes a modular square root:
// since p = 5 mod 8, the candidate a^((p+3)/8) squares to a or to -a,
// and in the second case it is multiplied by sqrt(-1). Returns
// errs.ErrInvalidKey if y does not correspond to a point on the curve.
func recoverEdwardsX(y *big.Int) (*big.Int, error) {
	one := big.NewInt(1)
	yy := new(big.Int).Mul(y, y)
	yy.Mod(yy, p)

	numerator := new(big.Int).Sub(yy, one)
	numerator.Mod(numerator, p)

	denominator := new(big.Int).Mul(d, yy)
	denominator.Add(denominator, one)
	denominator.Mod(denominator, p)

	denomInv := new(big.Int).ModInverse(denominator, p)
	if denomInv == nil {
		return nil, errs.ErrInvalidKey
	}

	xx := new(big.Int).Mul(numerator, denomInv)
	xx.Mod(xx, p)

	exp := new(big.Int).Add(p, big.NewInt(3))
	exp.Rsh(exp, 3)
	x := new(big.Int).Exp(xx, exp, p)

	check := new(big.Int).Mul(x, x)
	check.Mod(check, p)
	if check.Cmp(xx) != 0 {
		sqrtMinus1 := modSqrtMinus1()
		x.Mul(x, sqrtMinus1)
		x.Mod(x, p)
		check.Mul(x, x)
		check.Mod(check, p)
		if check.Cmp(xx) != 0 {
			return nil, errs.ErrInvalidKey
		}
	}
	return x, nil
}

// modSqrtMinus1 returns sqrt(-1) mod p = 2^((p-1)/4) mod p, used as the
// correction factor when the candidate root from Euler's criterion has
// the wrong sign (p = 5 mod 8 case of the Tonelli-Shanks special form).
func modSqrtMinus1() *big.Int {
	exp := new(big.Int).Sub(p, big.NewInt(1))
	exp.Rsh(exp, 2)
	return new(big.Int).Exp(big.NewInt(2), exp, p)
}
