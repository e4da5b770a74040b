/*
Package session implements session management and persistence orchestration.

A session is a derivation stored as an encoded snapshot. The Manager
serializes access per session ID, restores an engine for each operation and
saves it back, optionally coordinating replicas through a distributed lock.
*/
package session
