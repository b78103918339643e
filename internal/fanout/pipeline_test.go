package fanout

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/mocks"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/repositories"
)

type hubRecorder struct {
	mu         sync.Mutex
	broadcasts map[string][]models.ServerEvent
	personal   map[string][]models.ServerEvent
}

func newHubRecorder() *hubRecorder {
	return &hubRecorder{
		broadcasts: make(map[string][]models.ServerEvent),
		personal:   make(map[string][]models.ServerEvent),
	}
}

func (h *hubRecorder) BroadcastToConversation(conversationID string, event models.ServerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts[conversationID] = append(h.broadcasts[conversationID], event)
}

func (h *hubRecorder) SendToUser(userID string, event models.ServerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.personal[userID] = append(h.personal[userID], event)
}

type senderRecorder struct {
	mu     sync.Mutex
	events []models.ServerEvent
}

func (s *senderRecorder) Send(event models.ServerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type pipelineFixture struct {
	hub           *hubRecorder
	sender        *senderRecorder
	conversations *mocks.ConversationRepositoryMock
	items         *mocks.ItemRepositoryMock
	users         *mocks.UserRepositoryMock
	notifications *mocks.NotificationRepositoryMock
	mail          *mocks.MailerMock
	pipeline      *Pipeline
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		hub:           newHubRecorder(),
		sender:        &senderRecorder{},
		conversations: new(mocks.ConversationRepositoryMock),
		items:         new(mocks.ItemRepositoryMock),
		users:         new(mocks.UserRepositoryMock),
		notifications: new(mocks.NotificationRepositoryMock),
		mail:          new(mocks.MailerMock),
	}
	f.pipeline = NewPipeline(f.hub, f.conversations, f.items, f.users, f.notifications, f.mail, time.Second)
	f.pipeline.newCode = func() string { return "654321" }
	return f
}

func (f *pipelineFixture) expectContext(participants []string) {
	f.conversations.On("GetConversation", mock.Anything, "conv1").Return(models.Conversation{ID: "conv1", ItemID: "item1"}, nil).Once()
	f.items.On("GetItem", mock.Anything, "item1").Return(models.Item{ID: "item1", Title: "Blue Backpack", PosterID: "poster1", IsActive: true}, nil).Once()
	f.users.On("GetUser", mock.Anything, "poster1").Return(models.User{ID: "poster1", Name: "Priya", Email: "priya@campus.edu"}, nil).Once()
	f.conversations.On("Participants", mock.Anything, "conv1").Return(participants, nil).Once()
}

func validMessage() *models.Message {
	return &models.Message{ID: "m1", ConversationID: "conv1", SenderID: "alice", Content: "is this mine?"}
}

func TestRunRejectsMessageWithoutPersistedID(t *testing.T) {
	f := newPipelineFixture()

	out := f.pipeline.Run(context.Background(), f.sender, &models.Message{ConversationID: "conv1", SenderID: "alice"})

	require.ErrorIs(t, out.Err, ErrUnpersistedMessage)
	require.False(t, out.Validated)
	require.False(t, out.Broadcast)
	require.Empty(t, f.hub.broadcasts)
	require.Len(t, f.sender.events, 1)
	require.Equal(t, models.EventError, f.sender.events[0].Type)
	f.mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunRejectsNilMessage(t *testing.T) {
	f := newPipelineFixture()

	out := f.pipeline.Run(context.Background(), f.sender, nil)

	require.ErrorIs(t, out.Err, ErrUnpersistedMessage)
	require.Empty(t, f.hub.broadcasts)
	require.Len(t, f.sender.events, 1)
}

func TestRunBroadcastAppliesDefaults(t *testing.T) {
	f := newPipelineFixture()
	f.conversations.On("GetConversation", mock.Anything, "conv1").Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	msg := validMessage()
	msg.IsRead = true
	msg.IsActive = false
	out := f.pipeline.Run(context.Background(), f.sender, msg)

	require.True(t, out.Broadcast)
	events := f.hub.broadcasts["conv1"]
	require.Len(t, events, 1)
	require.Equal(t, models.EventReceiveMessage, events[0].Type)
	assert.False(t, events[0].Message.IsRead)
	assert.True(t, events[0].Message.IsActive)
}

func TestRunLookupMissStopsSideEffectsSilently(t *testing.T) {
	f := newPipelineFixture()
	f.conversations.On("GetConversation", mock.Anything, "conv1").Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.True(t, out.Broadcast)
	require.False(t, out.ContextResolved)
	require.Len(t, f.hub.broadcasts["conv1"], 1)
	require.Empty(t, f.sender.events, "lookup misses are not surfaced to the client")
	f.mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.notifications.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunMissingPosterStopsSideEffects(t *testing.T) {
	f := newPipelineFixture()
	f.conversations.On("GetConversation", mock.Anything, "conv1").Return(models.Conversation{ID: "conv1", ItemID: "item1"}, nil).Once()
	f.items.On("GetItem", mock.Anything, "item1").Return(models.Item{ID: "item1", PosterID: "poster1"}, nil).Once()
	f.users.On("GetUser", mock.Anything, "poster1").Return(models.User{}, repositories.ErrUserNotFound).Once()

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.True(t, out.Broadcast)
	require.False(t, out.ContextResolved)
	require.Empty(t, f.sender.events)
	f.mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSenderNotParticipantStopsSideEffects(t *testing.T) {
	f := newPipelineFixture()
	f.expectContext([]string{"bob", "carol"})

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.True(t, out.ContextResolved)
	require.False(t, out.ClaimantResolved)
	require.Len(t, f.hub.broadcasts["conv1"], 1)
	require.Empty(t, f.sender.events)
	f.mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunFullFanout(t *testing.T) {
	f := newPipelineFixture()
	f.expectContext([]string{"alice", "bob"})
	f.users.On("GetUser", mock.Anything, "alice").Return(models.User{ID: "alice", Name: "Alice", Email: "alice@campus.edu"}, nil).Once()
	f.mail.On("Send", mock.Anything, "alice@campus.edu", mock.Anything, mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "654321") && strings.Contains(body, "Blue Backpack")
	})).Return(nil).Once()
	f.notifications.On("CreateNotification", mock.Anything, "alice", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "654321")
	}), models.NotificationTypeClaimCode, "item1").Return(models.Notification{ID: "n1", UserID: "alice"}, nil).Once()
	f.notifications.On("CreateNotification", mock.Anything, "bob", mock.Anything, models.NotificationTypeClaimProgress, "item1").Return(models.Notification{ID: "n2", UserID: "bob"}, nil).Once()

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.NoError(t, out.Err)
	require.True(t, out.EmailSent)
	require.True(t, out.ClaimantNotified)
	require.Equal(t, 1, out.OthersNotified)

	require.Len(t, f.hub.broadcasts["conv1"], 1)
	require.Len(t, f.hub.personal["alice"], 1)
	require.Equal(t, models.EventNewNotification, f.hub.personal["alice"][0].Type)
	require.Len(t, f.hub.personal["bob"], 1)
	require.Empty(t, f.sender.events)

	f.conversations.AssertExpectations(t)
	f.items.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.notifications.AssertExpectations(t)
	f.mail.AssertExpectations(t)
}

func TestRunEmailFailureStopsNotifications(t *testing.T) {
	f := newPipelineFixture()
	f.expectContext([]string{"alice", "bob"})
	f.users.On("GetUser", mock.Anything, "alice").Return(models.User{ID: "alice", Name: "Alice", Email: "alice@campus.edu"}, nil).Once()
	f.mail.On("Send", mock.Anything, "alice@campus.edu", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.True(t, out.Broadcast)
	require.False(t, out.EmailSent)
	require.Error(t, out.Err)
	require.Len(t, f.sender.events, 1)
	require.Equal(t, models.EventError, f.sender.events[0].Type)
	require.Equal(t, genericFailureMessage, f.sender.events[0].Error)
	f.notifications.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunClaimantNotifyFailureStillNotifiesOthers(t *testing.T) {
	f := newPipelineFixture()
	f.expectContext([]string{"alice", "bob"})
	f.users.On("GetUser", mock.Anything, "alice").Return(models.User{ID: "alice", Name: "Alice", Email: "alice@campus.edu"}, nil).Once()
	f.mail.On("Send", mock.Anything, "alice@campus.edu", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifications.On("CreateNotification", mock.Anything, "alice", mock.Anything, models.NotificationTypeClaimCode, "item1").Return(models.Notification{}, assert.AnError).Once()
	f.notifications.On("CreateNotification", mock.Anything, "bob", mock.Anything, models.NotificationTypeClaimProgress, "item1").Return(models.Notification{ID: "n2", UserID: "bob"}, nil).Once()

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.False(t, out.ClaimantNotified)
	require.Equal(t, 1, out.OthersNotified)
	require.Len(t, f.hub.personal["bob"], 1)
	require.Empty(t, f.hub.personal["alice"])
	require.Len(t, f.sender.events, 1)
	f.notifications.AssertExpectations(t)
}

func TestRunParticipantFailureDoesNotBlockOthers(t *testing.T) {
	f := newPipelineFixture()
	f.expectContext([]string{"alice", "bob", "carol"})
	f.users.On("GetUser", mock.Anything, "alice").Return(models.User{ID: "alice", Name: "Alice", Email: "alice@campus.edu"}, nil).Once()
	f.mail.On("Send", mock.Anything, "alice@campus.edu", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifications.On("CreateNotification", mock.Anything, "alice", mock.Anything, models.NotificationTypeClaimCode, "item1").Return(models.Notification{ID: "n1", UserID: "alice"}, nil).Once()
	f.notifications.On("CreateNotification", mock.Anything, "bob", mock.Anything, models.NotificationTypeClaimProgress, "item1").Return(models.Notification{}, assert.AnError).Once()
	f.notifications.On("CreateNotification", mock.Anything, "carol", mock.Anything, models.NotificationTypeClaimProgress, "item1").Return(models.Notification{ID: "n3", UserID: "carol"}, nil).Once()

	out := f.pipeline.Run(context.Background(), f.sender, validMessage())

	require.Equal(t, 1, out.OthersNotified)
	require.True(t, out.ClaimantNotified)
	require.Empty(t, f.hub.personal["bob"])
	require.Len(t, f.hub.personal["carol"], 1)
	f.notifications.AssertExpectations(t)
}
