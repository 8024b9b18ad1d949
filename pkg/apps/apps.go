package apps

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type ContextUser string
type ContextChatID string

const (
	UserContextKey ContextUser   = "user"
	ChatContextKey ContextChatID = "chat"
)

type Accepter interface {
	AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error)
	AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error)
	AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error)
}

// Sender is the part of *tgbotapi.BotAPI the apps use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// WithUpdate stores the chat and user of an update in ctx.
func WithUpdate(ctx context.Context, chat *tgbotapi.Chat, user *tgbotapi.User) context.Context {
	ctx = context.WithValue(ctx, ChatContextKey, chat)
	return context.WithValue(ctx, UserContextKey, user)
}

func ChatFromContext(ctx context.Context) (*tgbotapi.Chat, bool) {
	chat, ok := ctx.Value(ChatContextKey).(*tgbotapi.Chat)
	return chat, ok && chat != nil
}

func UserFromContext(ctx context.Context) (*tgbotapi.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*tgbotapi.User)
	return user, ok && user != nil
}
