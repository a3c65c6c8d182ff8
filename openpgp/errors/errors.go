// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors contains common error types for the openpgp packages.
package errors

import (
	"strconv"
)

// A StructuralError is returned when OpenPGP data is found to be
// syntactically invalid.
type StructuralError string

func (s StructuralError) Error() string {
	return "openpgp: invalid data: " + string(s)
}

// UnsupportedError indicates that, although the OpenPGP data is valid,
// it makes use of currently unimplemented features.
type UnsupportedError string

func (s UnsupportedError) Error() string {
	return "openpgp: unsupported feature: " + string(s)
}

// InvalidArgumentError indicates that a function was given an invalid
// argument.
type InvalidArgumentError string

func (i InvalidArgumentError) Error() string {
	return "openpgp: invalid argument: " + string(i)
}

// SignatureError is returned when a signature check fails.
type SignatureError string

func (b SignatureError) Error() string {
	return "openpgp: invalid signature: " + string(b)
}

// KeyInvalidError indicates that the public key parameters are invalid,
// as indicated by cross-checking against the private key material.
type KeyInvalidError string

func (e KeyInvalidError) Error() string {
	return "openpgp: invalid key: " + string(e)
}

// ChecksumError is returned when a secret-key or session-key checksum
// does not match the recomputed value.
type ChecksumError string

func (e ChecksumError) Error() string {
	return "openpgp: checksum mismatch: " + string(e)
}

// PaddingError indicates that a PKCS#1 v1.5 padding block was malformed.
type PaddingError string

func (e PaddingError) Error() string {
	return "openpgp: padding error: " + string(e)
}

// UnknownPacketTypeError is used to report that a packet could not be
// fully decoded because the packet's tag byte identifies a type of
// packet that is unknown to this implementation.
type UnknownPacketTypeError uint8

func (e UnknownPacketTypeError) Error() string {
	return "openpgp: unknown packet type: " + strconv.Itoa(int(e))
}

// ErrMDCHashMismatch is returned when the modification detection code
// at the end of an IntegrityProtectedDataPacket's plaintext does not
// match the recomputed value, or the prefix quick-check fails. Callers
// cannot distinguish which check failed.
var ErrMDCHashMismatch error = SignatureError("MDC hash mismatch")

// ErrMDCMissing is returned when a SymmetricallyEncrypted packet is
// missing its trailing MDC packet, but the packet claims integrity
// protection.
var ErrMDCMissing error = SignatureError("MDC packet missing")

// ErrKeyIncorrect is returned when a private key (or passphrase used
// to decrypt one) does not match the data it was used to decrypt.
var ErrKeyIncorrect error = StructuralError("incorrect key")

// ErrUnknownIssuer is returned when a public key or PKESK packet refers
// to a key-id that is not present in the caller's key material.
var ErrUnknownIssuer error = StructuralError("unknown issuer")

// ErrDummyPrivateKey indicates that the given secret key is a GNU dummy
// key and does not contain any private material.
type ErrDummyPrivateKey string

func (e ErrDummyPrivateKey) Error() string {
	return "openpgp: dummy private key found: " + string(e)
}
