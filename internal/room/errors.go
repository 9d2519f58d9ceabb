package room

import "errors"

var (
	// ErrRoomNotFound is returned when a room code or id does not resolve
	// to a live room.
	ErrRoomNotFound = errors.New("room: not found")

	// ErrRoomLocked is returned when joining a locked room.
	ErrRoomLocked = errors.New("room: locked")

	// ErrGameStarted is returned when joining or starting a room that has
	// already left the waiting state.
	ErrGameStarted = errors.New("room: game already started")

	// ErrRoomFull is returned when the roster is at capacity.
	ErrRoomFull = errors.New("room: full")

	// ErrNotEnoughPlayers is returned when starting below the minimum
	// roster size.
	ErrNotEnoughPlayers = errors.New("room: not enough players")

	// ErrUnauthorized is returned when a non-admin attempts an admin-only
	// action.
	ErrUnauthorized = errors.New("room: unauthorized")

	// ErrGameNotActive is returned for trades outside the playing state.
	ErrGameNotActive = errors.New("room: game not active")

	// ErrPlayerNotFound is returned when an actor id is not on the roster.
	ErrPlayerNotFound = errors.New("room: player not found")

	// ErrAlreadyInRoom is returned when a connection already bound to a
	// room tries to create or join another one.
	ErrAlreadyInRoom = errors.New("room: connection already bound to a room")

	// ErrUnknownAction is returned for an unrecognized admin control action.
	ErrUnknownAction = errors.New("room: unknown admin action")
)
