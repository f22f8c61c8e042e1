/*
Package session keeps builder sessions alive across requests.

A Manager serializes access to each session with a reference-counted mutex,
optionally backed by a distributed lock, and writes a draft to a
ports.DraftStore after every successful change so that a session can be
restored after a restart or on another replica.
*/
package session
