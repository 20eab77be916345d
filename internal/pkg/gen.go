package pkg

import "github.com/google/uuid"

// GenerateRoomID - generates a new unique room id.
func GenerateRoomID() string {
	return uuid.NewString()
}

// GenerateConnectionID - generates a new unique id for an accepted socket.
func GenerateConnectionID() string {
	return uuid.NewString()
}
