// Package ocremote invokes operations on the components of a remote
// machine and decodes what comes back.
//
// Values are in package 'core', invocation is in 'channel', the
// transports are in 'sio', and typed component wrappers are in
// 'components'.  Package 'sim' simulates a machine for tests, and
// some command-line tools are in `cmd`.
package ocremote
