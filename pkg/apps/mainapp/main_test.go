package mainapp

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lapcounterbot/pkg/apps/lapcounter"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

type fakeSubs map[int64]bool

func (f fakeSubs) IsSubscribed(chatID int64) (bool, error) {
	return f[chatID], nil
}

type echoApp struct {
	commands []string
}

func (e *echoApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	if command != "/eco" {
		return false, nil
	}
	return true, func(ctx context.Context, chatId int64) error {
		e.commands = append(e.commands, command)
		return nil
	}
}

func (e *echoApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	return false, nil
}

func (e *echoApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	return false, nil
}

func TestStartListsCommands(t *testing.T) {
	bot := &fakeBot{}
	m := NewMainApp(bot, fakeSubs{2: true})

	accepted, handler := m.AcceptCommand(menuStart)
	if !accepted {
		t.Fatal("start not accepted")
	}
	if err := handler(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	text := bot.sent[0].Text
	for _, want := range []string{menuMenu, lapcounter.CommandLap, lapcounter.CommandAlerts} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	if _, ok := bot.sent[0].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatal("expected the menu keyboard")
	}
	if !strings.Contains(text, "avisos desactivados") {
		t.Errorf("expected alerts off in %q", text)
	}

	if err := handler(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(bot.sent[1].Text, "avisos activados") {
		t.Errorf("expected alerts on in %q", bot.sent[1].Text)
	}
}

func TestDelegatesToAccepters(t *testing.T) {
	echo := &echoApp{}
	m := NewMainApp(&fakeBot{}, fakeSubs{}, echo)

	accepted, handler := m.AcceptCommand("/eco")
	if !accepted {
		t.Fatal("command not delegated")
	}
	_ = handler(context.Background(), 1)
	if len(echo.commands) != 1 {
		t.Fatal("handler not called")
	}
	if accepted, _ := m.AcceptCommand("/nada"); accepted {
		t.Fatal("unexpected command accepted")
	}
	if accepted, _ := m.AcceptButton("nada"); accepted {
		t.Fatal("unexpected button accepted")
	}
}
