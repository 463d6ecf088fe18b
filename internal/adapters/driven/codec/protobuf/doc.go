// Package protobuf implements the gzip-compressed protobuf backup codec.
//
// The codec works at the wire level rather than through generated message
// types: only the fields the migrator reads are decoded, and every other
// byte of the backup is carried through encode unchanged.
package protobuf
