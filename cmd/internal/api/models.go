package api

import (
	"time"

	"walrus/cmd/identity"
	"walrus/cmd/internal/auth"
	"walrus/cmd/internal/chat"
)

type loginRequest struct {
	Alias    string `json:"alias"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenExchangeResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresAt string `json:"access_token_expires_at"`

	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at"`
}

func toTokenExchangeResponse(ex auth.TokenExchange) tokenExchangeResponse {
	return tokenExchangeResponse{
		AccessToken:          ex.AccessToken,
		AccessTokenExpiresAt: ex.AccessTokenExpiresAt.UTC().Format(time.RFC3339),

		RefreshToken:          ex.RefreshToken,
		RefreshTokenExpiresAt: ex.RefreshTokenExpiresAt.UTC().Format(time.RFC3339),
	}
}

type whoamiResponse struct {
	UserID identity.UserID `json:"user_id"`
}

type inviteUserRequest struct {
	Alias       string `json:"alias"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type inviteUserResponse struct {
	UserID identity.UserID `json:"user_id"`
}

type createPrivateChatRequest struct {
	RecipientAlias string `json:"recipient_alias"`
}

type chatModel struct {
	ID          chat.ChatID `json:"id"`
	DisplayName *string     `json:"display_name"`
	Kind        string      `json:"kind"`
}

type listChatsResponse struct {
	Chats []chatModel `json:"chats"`
}

func toListChatsResponse(chats []chat.Summary) listChatsResponse {
	out := listChatsResponse{Chats: make([]chatModel, 0, len(chats))}
	for _, c := range chats {
		out.Chats = append(out.Chats, chatModel{
			ID:          c.ID,
			DisplayName: c.DisplayName,
			Kind:        string(c.Kind),
		})
	}
	return out
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type messageModel struct {
	ID              chat.MessageID `json:"id"`
	Text            *string        `json:"text"`
	CreatedAt       string         `json:"created_at"`
	EditedAt        *string        `json:"edited_at"`
	UserID          *int32         `json:"user_id"`
	UserDisplayName *string        `json:"user_display_name"`
}

type listMessagesResponse struct {
	Messages []messageModel `json:"messages"`
}

func toListMessagesResponse(msgs []chat.Message) listMessagesResponse {
	out := listMessagesResponse{Messages: make([]messageModel, 0, len(msgs))}
	for _, m := range msgs {
		var edited *string
		if m.EditedAt != nil {
			v := m.EditedAt.UTC().Format(time.RFC3339)
			edited = &v
		}
		out.Messages = append(out.Messages, messageModel{
			ID:              m.ID,
			Text:            m.Text,
			CreatedAt:       m.CreatedAt.UTC().Format(time.RFC3339),
			EditedAt:        edited,
			UserID:          m.UserID,
			UserDisplayName: m.UserDisplayName,
		})
	}
	return out
}

type sendMessageResponse struct {
	MessageID chat.MessageID `json:"message_id"`
}

type createChatResponse struct {
	ChatID chat.ChatID `json:"chat_id"`
}
