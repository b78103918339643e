package fanout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/mailer"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/observability"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/repositories"
)

// ErrUnpersistedMessage is returned when an inbound event has no stored id.
// Unpersisted content is never fanned out.
var ErrUnpersistedMessage = errors.New("message has no persisted id")

const genericFailureMessage = "could not complete claim verification"

// Broadcaster publishes events to channels. Implemented by the ws hub.
type Broadcaster interface {
	BroadcastToConversation(conversationID string, event models.ServerEvent)
	SendToUser(userID string, event models.ServerEvent)
}

// Sender is the originating connection; validation and delivery failures are
// reported back to it alone.
type Sender interface {
	Send(event models.ServerEvent) error
}

// Pipeline drives a chat-send event: broadcast to the conversation, then the
// best-effort claim-verification side effects (lookups, one-time code, email,
// notifications). One invocation per event; invocations run concurrently.
type Pipeline struct {
	hub           Broadcaster
	conversations repositories.ConversationRepository
	items         repositories.ItemRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	mail          mailer.Mailer

	// timeout bounds each external call so a slow dependency cannot hold
	// pipeline resources indefinitely.
	timeout time.Duration

	newCode func() string
}

// NewPipeline wires the pipeline.
func NewPipeline(
	hub Broadcaster,
	conversations repositories.ConversationRepository,
	items repositories.ItemRepository,
	users repositories.UserRepository,
	notifications repositories.NotificationRepository,
	mail mailer.Mailer,
	timeout time.Duration,
) *Pipeline {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Pipeline{
		hub:           hub,
		conversations: conversations,
		items:         items,
		users:         users,
		notifications: notifications,
		mail:          mail,
		timeout:       timeout,
		newCode:       newVerificationCode,
	}
}

// Run executes one invocation. Steps run in strict order; the broadcast is
// never rolled back by later failures, and lookup misses after it stop the
// side effects silently.
func (p *Pipeline) Run(ctx context.Context, sender Sender, msg *models.Message) Outcome {
	var out Outcome

	if msg == nil || msg.ID == "" || msg.ConversationID == "" {
		out.Err = ErrUnpersistedMessage
		p.reportError(sender, "message must be saved before it can be sent")
		observability.IncFanoutRun("rejected")
		return out
	}
	out.Validated = true

	broadcast := *msg
	broadcast.IsRead = false
	broadcast.IsActive = true
	p.hub.BroadcastToConversation(msg.ConversationID, models.ServerEvent{
		Type:    models.EventReceiveMessage,
		Message: &broadcast,
	})
	out.Broadcast = true

	conv, err := p.resolveConversation(ctx, msg.ConversationID)
	if err != nil {
		out.Err = err
		log.Printf("fanout: conversation context unresolved conversation_id=%s: %v", msg.ConversationID, err)
		observability.IncFanoutRun("lookup_miss")
		return out
	}
	item, err := p.resolveItem(ctx, conv.ItemID)
	if err != nil {
		out.Err = err
		log.Printf("fanout: item unresolved item_id=%s: %v", conv.ItemID, err)
		observability.IncFanoutRun("lookup_miss")
		return out
	}
	poster, err := p.resolveUser(ctx, item.PosterID)
	if err != nil {
		out.Err = err
		log.Printf("fanout: poster unresolved user_id=%s: %v", item.PosterID, err)
		observability.IncFanoutRun("lookup_miss")
		return out
	}
	out.ContextResolved = true

	participants, err := p.resolveParticipants(ctx, msg.ConversationID)
	if err != nil {
		out.Err = err
		log.Printf("fanout: participants unresolved conversation_id=%s: %v", msg.ConversationID, err)
		observability.IncFanoutRun("lookup_miss")
		return out
	}
	if !contains(participants, msg.SenderID) {
		out.Err = fmt.Errorf("sender %s is not a participant", msg.SenderID)
		log.Printf("fanout: %v conversation_id=%s", out.Err, msg.ConversationID)
		observability.IncFanoutRun("lookup_miss")
		return out
	}
	claimant, err := p.resolveUser(ctx, msg.SenderID)
	if err != nil {
		out.Err = err
		log.Printf("fanout: claimant unresolved user_id=%s: %v", msg.SenderID, err)
		observability.IncFanoutRun("lookup_miss")
		return out
	}
	out.ClaimantResolved = true

	code := p.newCode()
	out.CodeGenerated = true

	if err := p.dispatchEmail(ctx, claimant, poster, item, code); err != nil {
		out.Err = err
		log.Printf("fanout: verification email failed to=%s item_id=%s: %v", claimant.Email, item.ID, err)
		observability.IncEmailSent("error")
		p.reportError(sender, genericFailureMessage)
		observability.IncFanoutRun("delivery_failure")
		return out
	}
	observability.IncEmailSent("ok")
	out.EmailSent = true

	claimantText := fmt.Sprintf("Your verification code for %q is %s. Show it to %s when you collect the item.", item.Title, code, poster.Name)
	if err := p.notify(ctx, claimant.ID, claimantText, models.NotificationTypeClaimCode, item.ID); err != nil {
		out.Err = err
		log.Printf("fanout: claimant notification failed user_id=%s: %v", claimant.ID, err)
		p.reportError(sender, genericFailureMessage)
	} else {
		out.ClaimantNotified = true
	}

	progressText := fmt.Sprintf("Claim verification for %q is in progress.", item.Title)
	for _, participantID := range participants {
		if participantID == msg.SenderID {
			continue
		}
		if err := p.notify(ctx, participantID, progressText, models.NotificationTypeClaimProgress, item.ID); err != nil {
			log.Printf("fanout: participant notification failed user_id=%s: %v", participantID, err)
			continue
		}
		out.OthersNotified++
	}

	if out.Err != nil {
		observability.IncFanoutRun("delivery_failure")
	} else {
		observability.IncFanoutRun("ok")
	}
	return out
}

func (p *Pipeline) resolveConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.conversations.GetConversation(callCtx, conversationID)
}

func (p *Pipeline) resolveItem(ctx context.Context, itemID string) (models.Item, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.items.GetItem(callCtx, itemID)
}

func (p *Pipeline) resolveUser(ctx context.Context, userID string) (models.User, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.users.GetUser(callCtx, userID)
}

func (p *Pipeline) resolveParticipants(ctx context.Context, conversationID string) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.conversations.Participants(callCtx, conversationID)
}

func (p *Pipeline) dispatchEmail(ctx context.Context, claimant, poster models.User, item models.Item, code string) error {
	subject := fmt.Sprintf("Verification code for %q", item.Title)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour verification code for the item %q is: %s\n\nShow this code to %s (%s) when you collect the item.\n\n— Lost & Found",
		claimant.Name, item.Title, code, poster.Name, poster.Email,
	)
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.mail.Send(callCtx, claimant.Email, subject, body)
}

func (p *Pipeline) notify(ctx context.Context, userID, text, notificationType, itemID string) error {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	n, err := p.notifications.CreateNotification(callCtx, userID, text, notificationType, itemID)
	if err != nil {
		return err
	}
	observability.IncNotificationCreated(notificationType)
	p.hub.SendToUser(userID, models.ServerEvent{Type: models.EventNewNotification, Notification: &n})
	return nil
}

func (p *Pipeline) reportError(sender Sender, message string) {
	if sender == nil {
		return
	}
	if err := sender.Send(models.ServerEvent{Type: models.EventError, Error: message}); err != nil {
		log.Printf("fanout: error event not delivered: %v", err)
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
