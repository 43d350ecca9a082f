// Package desfire holds the cryptographic core of MIFARE DESFire EV1 and EV2
// secure messaging: DES, 2TDEA, 3TDEA and AES-128 under one cipher.Block
// interface, CMAC with IV continuation, the CRC16/CRC32 locator for legacy
// decrypted frames, AN10922 key diversification, session key derivation for
// EV1, EV2, transaction MAC and LRP authentication, and the EV2 IV and MAC
// constructions.
//
// A SecurityContext carries the per-connection state. EV2 commands follow
// this order: BuildEV2IV(true) and ComputeEV2CMAC for the command, exchange,
// IncrementCommandCounter, then BuildEV2IV(false) and ComputeEV2CMAC for the
// response. A counter that drifts from the card's is not detected here; the
// next MAC check simply fails.
//
// Command framing, card transport and key storage are left to the caller.
package desfire
