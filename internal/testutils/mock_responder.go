package testutils

import (
	"sync"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
)

// SentEmbeds captures a single SendEmbeds call made on MockResponder.
type SentEmbeds struct {
	ChannelID discord.ChannelID
	Embeds    []discord.Embed
}

// InteractionReply captures a single RespondInteraction call.
type InteractionReply struct {
	ID       discord.InteractionID
	Token    string
	Response api.InteractionResponse
}

// InteractionEdit captures a single EditInteractionResponse call.
type InteractionEdit struct {
	AppID discord.AppID
	Token string
	Data  api.EditInteractionResponseData
}

// MockResponder implements discord.Responder for testing.
type MockResponder struct {
	mu sync.Mutex

	Sent       []SentEmbeds
	Replies    []InteractionReply
	Edits      []InteractionEdit
	Overwrites [][]api.CreateCommandData

	AppID discord.AppID

	// SendError, if set, is returned by SendEmbeds for every channel in
	// FailChannels, or for all channels when FailChannels is empty.
	SendError    error
	FailChannels []discord.ChannelID
}

func (m *MockResponder) RespondInteraction(id discord.InteractionID, token string, resp api.InteractionResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, InteractionReply{ID: id, Token: token, Response: resp})
	return nil
}

func (m *MockResponder) EditInteractionResponse(appID discord.AppID, token string, data api.EditInteractionResponseData) (*discord.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, InteractionEdit{AppID: appID, Token: token, Data: data})
	return &discord.Message{}, nil
}

func (m *MockResponder) SendEmbeds(channelID discord.ChannelID, embeds ...discord.Embed) (*discord.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendError != nil && m.failsFor(channelID) {
		return nil, m.SendError
	}
	m.Sent = append(m.Sent, SentEmbeds{ChannelID: channelID, Embeds: embeds})
	return &discord.Message{ChannelID: channelID, Embeds: embeds}, nil
}

func (m *MockResponder) failsFor(channelID discord.ChannelID) bool {
	if len(m.FailChannels) == 0 {
		return true
	}
	for _, id := range m.FailChannels {
		if id == channelID {
			return true
		}
	}
	return false
}

func (m *MockResponder) CurrentApplication() (*discord.Application, error) {
	return &discord.Application{ID: m.AppID}, nil
}

func (m *MockResponder) BulkOverwriteCommands(_ discord.AppID, commands []api.CreateCommandData) ([]discord.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Overwrites = append(m.Overwrites, commands)
	return nil, nil
}

// GetSent returns a copy of every SendEmbeds call so far.
func (m *MockResponder) GetSent() []SentEmbeds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmbeds(nil), m.Sent...)
}

// GetLastReply returns the most recent interaction reply, or nil if none.
func (m *MockResponder) GetLastReply() *InteractionReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Replies) == 0 {
		return nil
	}
	return &m.Replies[len(m.Replies)-1]
}

// GetLastEdit returns the most recent interaction edit, or nil if none.
func (m *MockResponder) GetLastEdit() *InteractionEdit {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Edits) == 0 {
		return nil
	}
	return &m.Edits[len(m.Edits)-1]
}
