// Package abi codecs the guest-memory records shared with descriptor
// producers.
//
// Guests describe signatures with three fixed-layout records in linear
// memory: type descriptors, call interfaces and closure records. The field
// offsets are a frozen contract; records_test.go pins every one of them.
// Decoding resolves the pointer graph into host-side values, encoding
// lays a host-side value back out through an Allocator.
package abi
