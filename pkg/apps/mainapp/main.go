package mainapp

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/apps"
	"lapcounterbot/pkg/apps/lapcounter"
)

const (
	menuStart = "/start"
	menuMenu  = "/menu"
	AppName   = "menú"
)

var (
	menuKeyboard = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(lapcounter.ButtonTiming),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(lapcounter.ButtonRanking),
			tgbotapi.NewKeyboardButton(lapcounter.ButtonReplay),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(lapcounter.ButtonCategories),
			tgbotapi.NewKeyboardButton(lapcounter.ButtonAlerts),
		),
	)
)

// Menuer gives sub apps a way back to the main keyboard.
type Menuer struct{}

func (Menuer) Menu() tgbotapi.ReplyKeyboardMarkup {
	return menuKeyboard
}

type SubscriptionChecker interface {
	IsSubscribed(chatID int64) (bool, error)
}

type MainApp struct {
	bot       apps.Sender
	subs      SubscriptionChecker
	accepters []apps.Accepter
}

func NewMainApp(bot apps.Sender, subs SubscriptionChecker, accepters ...apps.Accepter) *MainApp {
	return &MainApp{
		bot:       bot,
		subs:      subs,
		accepters: accepters,
	}
}

func (m *MainApp) Menu() tgbotapi.ReplyKeyboardMarkup {
	return menuKeyboard
}

func (m *MainApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	if command == menuStart {
		return true, m.renderStart()
	} else if command == menuMenu {
		return true, m.renderMenu()
	}
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptCommand(command)
		if accept {
			return true, handler
		}
	}

	return false, nil
}

func (m *MainApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptCallback(query)
		if accept {
			return true, handler
		}
	}

	return false, nil
}

func (m *MainApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	for _, accepter := range m.accepters {
		accept, handler := accepter.AcceptButton(button)
		if accept {
			return true, handler
		}
	}
	return false, nil
}

func (m *MainApp) renderStart() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		message := "Hola, soy el bot cuentavueltas de la carrera.\n\n"
		message += "Puedes usar los siguientes comandos:\n\n"
		message += fmt.Sprintf("%s - Muestra el menú del bot\n", menuMenu)
		message += lapcounter.Help()
		if subscribed, err := m.subs.IsSubscribed(chatId); err != nil {
			log.Err(err).Int64("chat", chatId).Msg("failed to check subscription")
		} else if subscribed {
			message += "\n\nTienes los avisos activados."
		} else {
			message += fmt.Sprintf("\n\nTienes los avisos desactivados. Usa %s para activarlos.", lapcounter.CommandAlerts)
		}
		msg := tgbotapi.NewMessage(chatId, message)
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}

func (m *MainApp) renderMenu() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		message := "Menú del bot.\n\n"
		msg := tgbotapi.NewMessage(chatId, message)
		msg.ReplyMarkup = menuKeyboard
		_, err := m.bot.Send(msg)
		return err
	}
}
