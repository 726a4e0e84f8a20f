package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shoplist-service/internal/adapters/kafka"
	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

// ChatService persists list chat. It backs both the REST history endpoint
// and the live room_message path; the router calls SaveRoomMessage after it
// has already re-validated membership.
type ChatService struct {
	chats    *postgres.ChatRepository
	lists    *postgres.ListRepository
	users    *postgres.UserRepository
	activity *kafka.ActivityProducer
}

func NewChatService(chats *postgres.ChatRepository, lists *postgres.ListRepository, users *postgres.UserRepository, activity *kafka.ActivityProducer) *ChatService {
	return &ChatService{chats: chats, lists: lists, users: users, activity: activity}
}

// SaveRoomMessage stores a message arriving over a live session and returns
// the payload to broadcast to the room.
func (s *ChatService) SaveRoomMessage(ctx context.Context, userID, listID, content string) (interface{}, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	lid, err := uuid.Parse(listID)
	if err != nil {
		return nil, fmt.Errorf("invalid list id: %w", err)
	}

	msg := models.ChatMessage{
		ShoppingListID: lid,
		SenderID:       uid,
		Content:        content,
	}
	if err := s.chats.Create(ctx, &msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	resp := msg.ToResponse()
	if sender, err := s.users.GetByID(ctx, uid); err == nil {
		resp.SenderName = sender.Username
	}

	if s.activity != nil {
		if list, err := s.lists.GetByID(ctx, lid); err == nil {
			s.activity.Publish(ctx, kafka.ActivityEvent{
				Event:    realtime.EventChatMessage,
				TenantID: list.TenantID.String(),
				ListID:   listID,
				ActorID:  userID,
				Data:     map[string]interface{}{"message_id": msg.ID.String()},
			})
		}
	}
	return resp, nil
}

// GetHistory pages backwards through a list's chat. Membership is checked
// here because REST reads do not pass through the session router.
func (s *ChatService) GetHistory(ctx context.Context, listID, userID uuid.UUID, limit int, before *time.Time) ([]models.ChatMessageResponse, error) {
	member, err := s.lists.IsMember(ctx, listID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return nil, ErrNotMember
	}

	messages, err := s.chats.GetHistory(ctx, listID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]models.ChatMessageResponse, len(messages))
	for i := range messages {
		out[i] = messages[i].ToResponse()
	}
	return out, nil
}

// DeleteMessage soft-deletes a message. The sender may always delete their
// own; the list owner may delete anyone's.
func (s *ChatService) DeleteMessage(ctx context.Context, listID, messageID, actorID uuid.UUID) error {
	msg, err := s.chats.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("lookup message: %w", err)
	}
	if msg.ShoppingListID != listID {
		return ErrMessageNotFound
	}

	if msg.SenderID != actorID {
		member, merr := s.lists.GetMember(ctx, listID, actorID)
		if merr != nil || member.Role != models.MemberRoleOwner {
			return ErrPermissionDenied
		}
	}

	return s.chats.Delete(ctx, messageID)
}
