/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package transport

// Join is sent by a client once it knows its username.
type Join struct {
	Username string `json:"username"`
}

// Welcome is sent to a client right after it connects.
type Welcome struct {
	PlayerID    string `json:"playerId"`
	IsModerator bool   `json:"isModerator"`
	Round       int    `json:"round"`
}

// User is one roster entry in a setUsers message.
type User struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	IsDrawer bool   `json:"isDrawer"`
}

// Round announces a new round and who may move the stickman in it.
type Round struct {
	Round  int    `json:"round"`
	Drawer string `json:"drawer"`
}

// Notice is a message for one client only, such as a rejected join.
type Notice struct {
	Message string `json:"message"`
}
