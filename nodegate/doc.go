// Package nodegate implements the per-connection HTTP/RPC request dispatch
// core of a server: routing, codec decoding, invocation, response ordering,
// and idle-timeout enforcement. It does not parse HTTP bytes, manage TLS, or
// define a wire protocol of its own; those are supplied by collaborators.
package nodegate
