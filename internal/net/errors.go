package net

import "errors"

var (
	// ErrDisconnected is returned by operations on a closed connection.
	ErrDisconnected = errors.New("connection closed")
	// ErrMatchStarted rejects joins after the lobby has locked.
	ErrMatchStarted = errors.New("match already started")
	// ErrLobbyFull rejects joins beyond the player ceiling.
	ErrLobbyFull = errors.New("lobby full")
	// ErrSendTimeout is surfaced when a peer write exceeds its deadline.
	ErrSendTimeout = errors.New("send timed out")
)
