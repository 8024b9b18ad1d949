package main

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/apps"
)

func receiveUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel, app apps.Accepter) {
	for {
		select {
		// stop looping if ctx is cancelled
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			handleUpdate(ctx, app, update)
		}
	}
}

func handleUpdate(ctx context.Context, app apps.Accepter, update tgbotapi.Update) {
	switch {
	// Handle messages
	case update.Message != nil:
		handleMessage(ctx, app, update.Message)
	// Handle button clicks
	case update.CallbackQuery != nil:
		handleCallbackQuery(ctx, app, update.CallbackQuery)
	}
}

func handleMessage(ctx context.Context, app apps.Accepter, message *tgbotapi.Message) {
	user := message.From
	text := message.Text

	if user == nil {
		return
	}

	log.Debug().Str("user", user.FirstName).Str("text", text).Msg("message received")

	ctx = apps.WithUpdate(ctx, message.Chat, user)
	var accepted bool
	var handler func(ctx context.Context, chatId int64) error
	if message.IsCommand() {
		accepted, handler = app.AcceptCommand(text)
	} else {
		accepted, handler = app.AcceptButton(text)
	}
	if !accepted {
		return
	}
	if err := handler(ctx, message.Chat.ID); err != nil {
		log.Err(err).Str("text", text).Msg("an error occured")
	}
}

func handleCallbackQuery(ctx context.Context, app apps.Accepter, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	ctx = apps.WithUpdate(ctx, query.Message.Chat, query.From)
	accepted, handler := app.AcceptCallback(query)
	if !accepted {
		return
	}
	if err := handler(ctx, query); err != nil {
		log.Err(err).Str("data", query.Data).Msg("an error occured")
	}
}
