// Package telegram provides the transport handle and recommendation fetcher
// for the Telegram platform.
//
// The package exposes two layers:
//   - Client: the authenticated transport handle with a single
//     connect/disconnect lifecycle and the one recommendation RPC the core
//     consumes. GatewayClient implements it over an MTProto HTTP gateway.
//   - Fetcher: wraps one recommendation call, absorbing the full transport
//     failure taxonomy and normalizing raw entries into ChannelRecords.
//
// Authentication and session negotiation are out of scope: the gateway is
// assumed to hold an authorized session, and Connect only verifies it.
//
// The package is designed to be used with dependency injection - create a
// Client once at startup and pass it to components that need the platform
// rather than using global state.
package telegram
