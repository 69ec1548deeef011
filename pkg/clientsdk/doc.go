// Package clientsdk is used by client sites to talk to the identity
// provider from their backends: redeeming the one-time authorization code
// a user brings back after login, and checking a cached refresh token.
//
// The request and response types are the wire format of the provider's
// server-to-server endpoints and are shared by the provider's handlers.
package clientsdk
