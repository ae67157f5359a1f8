// Package credential decodes and classifies the bearer credentials issued by
// the banking API.
//
// Decoding is structural only: the payload is read but the signature is not
// checked, since the client never holds the key. Signer exists for the
// development API and tests.
package credential
