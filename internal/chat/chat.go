// Package chat defines the transport surface the game engine needs from a
// chat platform. The discord package provides the production implementation;
// tests substitute fakes.
package chat

type EmbedField struct {
	Name  string
	Value string
}

// Embed is a transport-neutral rich message body.
type Embed struct {
	Description string
	Color       int
	Footer      string
	Fields      []EmbedField
}

type Transport interface {
	// CreateChannel provisions a text channel on the server and returns its id.
	CreateChannel(serverID, name string) (string, error)
	DeleteChannel(channelID string) error
	// SendEmbed posts content with an optional embed and returns the message id.
	SendEmbed(channelID, content string, embed *Embed) (string, error)
	// DisplayName resolves a user's display name within a server.
	DisplayName(serverID, userID string) (string, error)
}
