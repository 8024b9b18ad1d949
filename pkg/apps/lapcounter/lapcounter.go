package lapcounter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/apps"
	"lapcounterbot/pkg/helper"
	"lapcounterbot/pkg/menus"
	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/race"
	"lapcounterbot/pkg/render"
	"lapcounterbot/pkg/storage"
)

const (
	CommandStart      = "/salida"
	CommandLap        = "/vuelta"
	CommandRanking    = "/clasificacion"
	CommandCategories = "/categorias"
	CommandCategory   = "/categoria"
	CommandReplay     = "/repeticion"
	CommandAlerts     = "/avisos"

	ButtonTiming     = "Cronometraje"
	ButtonStart      = "Dar salida"
	ButtonRanking    = "Clasificación"
	ButtonCategories = "Categorías"
	ButtonReplay     = "Repetición"
	ButtonAlerts     = "Avisos"

	subcommandRanking = "clasificacion"
	inlineGeneral     = "General"
	symbolRanking     = "🏁"

	replayLimit = 30
)

// RaceHost is the serialized race driven from the bot.
type RaceHost interface {
	Name() string
	Start() model.RaceStarted
	StartDate() (time.Time, bool)
	RecordLap(id int) (model.LapEvent, bool)
	AddCategory(name string, firstID, lastID int) (bool, error)
	Categories() []race.Category
	Ranking(category string) []race.Participant
	InsertedParticipants() []race.Participant
}

type Subscriptions interface {
	ToggleSubscription(user storage.TelegramUser) (bool, error)
}

type RaceApp struct {
	bot          apps.Sender
	appMenu      menus.ApplicationMenu
	menuKeyboard tgbotapi.ReplyKeyboardMarkup
	host         RaceHost
	subs         Subscriptions
	now          func() time.Time
}

func NewRaceApp(bot apps.Sender, appMenu menus.ApplicationMenu, host RaceHost, subs Subscriptions) *RaceApp {
	return &RaceApp{
		bot:     bot,
		appMenu: appMenu,
		menuKeyboard: tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(ButtonStart),
				tgbotapi.NewKeyboardButton(ButtonRanking),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(appMenu.ButtonBackTo()),
			),
		),
		host: host,
		subs: subs,
		now:  time.Now,
	}
}

// Menu is the timing keyboard, shown from the ButtonTiming button.
func (ra *RaceApp) Menu() tgbotapi.ReplyKeyboardMarkup {
	return ra.menuKeyboard
}

// Help lists the commands handled by the app.
func Help() string {
	lines := []string{
		fmt.Sprintf("%s - Da la salida a la carrera", CommandStart),
		fmt.Sprintf("%s <dorsal> - Registra una vuelta", CommandLap),
		fmt.Sprintf("%s [categoría] - Muestra la clasificación", CommandRanking),
		fmt.Sprintf("%s - Lista las categorías", CommandCategories),
		fmt.Sprintf("%s <nombre> <primero> <último> - Crea una categoría", CommandCategory),
		fmt.Sprintf("%s - Muestra las últimas vueltas", CommandReplay),
		fmt.Sprintf("%s - Activa o desactiva los avisos", CommandAlerts),
	}
	return strings.Join(lines, "\n")
}

func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	name := fields[0]
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name, fields[1:]
}

func (ra *RaceApp) AcceptCommand(command string) (bool, func(ctx context.Context, chatId int64) error) {
	name, args := parseCommand(command)
	switch name {
	case CommandStart:
		return true, ra.renderStart()
	case CommandLap:
		return true, ra.renderLap(args)
	case CommandRanking:
		return true, ra.renderRanking(strings.Join(args, " "), nil)
	case CommandCategories:
		return true, ra.renderCategories()
	case CommandCategory:
		return true, ra.renderAddCategory(args)
	case CommandReplay:
		return true, ra.renderReplay()
	case CommandAlerts:
		return true, ra.renderAlerts()
	}
	return false, nil
}

func (ra *RaceApp) AcceptButton(button string) (bool, func(ctx context.Context, chatId int64) error) {
	switch button {
	case ButtonTiming:
		return true, ra.renderMenu("Cronometraje de "+ra.host.Name(), ra.menuKeyboard)
	case ra.appMenu.ButtonBackTo():
		return true, ra.renderMenu("OK", ra.appMenu.PrevMenu())
	case ButtonStart:
		return true, ra.renderStart()
	case ButtonRanking:
		return true, ra.renderRanking("", nil)
	case ButtonCategories:
		return true, ra.renderCategories()
	case ButtonReplay:
		return true, ra.renderReplay()
	case ButtonAlerts:
		return true, ra.renderAlerts()
	}
	return false, nil
}

func (ra *RaceApp) AcceptCallback(query *tgbotapi.CallbackQuery) (bool, func(ctx context.Context, query *tgbotapi.CallbackQuery) error) {
	data := strings.SplitN(query.Data, ":", 2)
	if len(data) == 2 && data[0] == subcommandRanking {
		return true, func(ctx context.Context, query *tgbotapi.CallbackQuery) error {
			category, ok := ra.categoryFromCallback(data[1])
			if !ok {
				log.Warn().Str("data", query.Data).Msg("unknown ranking category in callback")
				return nil
			}
			return ra.renderRanking(category, &query.Message.MessageID)(ctx, query.Message.Chat.ID)
		}
	}
	return false, nil
}

// categoryFromCallback resolves the category index carried in callback
// data. Telegram caps callback data at 64 bytes, so names are not sent.
func (ra *RaceApp) categoryFromCallback(data string) (string, bool) {
	if data == "" {
		return "", true
	}
	idx, err := strconv.Atoi(data)
	if err != nil {
		return "", false
	}
	categories := ra.host.Categories()
	if idx < 0 || idx >= len(categories) {
		return "", false
	}
	return categories[idx].Name, true
}

func (ra *RaceApp) send(chatId int64, text string) error {
	_, err := ra.bot.Send(tgbotapi.NewMessage(chatId, text))
	return err
}

func (ra *RaceApp) renderMenu(text string, keyboard tgbotapi.ReplyKeyboardMarkup) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		msg := tgbotapi.NewMessage(chatId, text)
		msg.ReplyMarkup = keyboard
		_, err := ra.bot.Send(msg)
		return err
	}
}

func (ra *RaceApp) renderStart() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		rs := ra.host.Start()
		return ra.send(chatId, fmt.Sprintf("%s ¡Salida!\n\n%s", symbolRanking, rs.String()))
	}
}

func (ra *RaceApp) renderLap(args []string) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		if len(args) != 1 {
			return ra.send(chatId, fmt.Sprintf("Uso: %s <dorsal>", CommandLap))
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return ra.send(chatId, fmt.Sprintf("Dorsal no válido: %q", args[0]))
		}
		event, ok := ra.host.RecordLap(id)
		if !ok {
			return ra.send(chatId, fmt.Sprintf("La carrera no ha empezado. Usa %s", CommandStart))
		}
		return ra.send(chatId, "Vuelta registrada\n\n"+event.String())
	}
}

func (ra *RaceApp) renderRanking(category string, messageID *int) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		title := ra.host.Name()
		if category != "" {
			title += " - " + category
		}
		start, started := ra.host.StartDate()
		table := render.RankingTable(title, ra.host.Ranking(category), start, started)
		if started {
			table += "Tiempo de carrera: " + helper.DurationToHoursAndMinutes(ra.now().Sub(start)) + "\n"
		}
		text := fmt.Sprintf("```\n%s```", escapeCode(table))
		keyboard := ra.rankingKeyboard()

		var cfg tgbotapi.Chattable
		if messageID == nil {
			msg := tgbotapi.NewMessage(chatId, text)
			msg.ParseMode = tgbotapi.ModeMarkdownV2
			msg.ReplyMarkup = keyboard
			cfg = msg
		} else {
			msg := tgbotapi.NewEditMessageText(chatId, *messageID, text)
			msg.ParseMode = tgbotapi.ModeMarkdownV2
			msg.ReplyMarkup = &keyboard
			cfg = msg
		}
		_, err := ra.bot.Send(cfg)
		return err
	}
}

func (ra *RaceApp) rankingKeyboard() tgbotapi.InlineKeyboardMarkup {
	buttons := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(inlineGeneral+" "+symbolRanking, subcommandRanking+":"),
	}
	for idx, c := range ra.host.Categories() {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(c.Name, subcommandRanking+":"+strconv.Itoa(idx)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for idx, b := range buttons {
		if idx%2 == 0 {
			rows = append(rows, []tgbotapi.InlineKeyboardButton{})
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], b)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (ra *RaceApp) renderCategories() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		categories := ra.host.Categories()
		if len(categories) == 0 {
			return ra.send(chatId, "No hay categorías")
		}
		msg := tgbotapi.NewMessage(chatId, fmt.Sprintf("```\n%s```", escapeCode(render.Categories(categories))))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		_, err := ra.bot.Send(msg)
		return err
	}
}

func (ra *RaceApp) renderAddCategory(args []string) func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		if len(args) < 3 {
			return ra.send(chatId, fmt.Sprintf("Uso: %s <nombre> <primero> <último>", CommandCategory))
		}
		name := strings.Join(args[:len(args)-2], " ")
		firstID, errFirst := strconv.Atoi(args[len(args)-2])
		lastID, errLast := strconv.Atoi(args[len(args)-1])
		if errFirst != nil || errLast != nil {
			return ra.send(chatId, "Los dorsales deben ser números")
		}

		added, err := ra.host.AddCategory(name, firstID, lastID)
		if err != nil {
			return ra.send(chatId, "No se pudo crear la categoría: "+err.Error())
		}
		if !added {
			return ra.send(chatId, fmt.Sprintf("La categoría %q ya existe", name))
		}
		return ra.send(chatId, fmt.Sprintf("Categoría %q creada (%d - %d)", name, firstID, lastID))
	}
}

func (ra *RaceApp) renderReplay() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		start, started := ra.host.StartDate()
		if !started {
			return ra.send(chatId, fmt.Sprintf("La carrera no ha empezado. Usa %s", CommandStart))
		}
		entries := ra.host.InsertedParticipants()
		if len(entries) == 0 {
			return ra.send(chatId, "Todavía no hay vueltas")
		}
		if len(entries) > replayLimit {
			entries = entries[:replayLimit]
		}
		table := render.ReplayTable(ra.host.Name(), entries, start)
		msg := tgbotapi.NewMessage(chatId, fmt.Sprintf("```\n%s```", escapeCode(table)))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		_, err := ra.bot.Send(msg)
		return err
	}
}

func (ra *RaceApp) renderAlerts() func(ctx context.Context, chatId int64) error {
	return func(ctx context.Context, chatId int64) error {
		name := ""
		if user, ok := apps.UserFromContext(ctx); ok {
			name = user.UserName
			if name == "" {
				name = user.FirstName
			}
		}
		// group chats are subscribed as a whole
		if chat, ok := apps.ChatFromContext(ctx); ok && (chat.IsGroup() || chat.IsSuperGroup()) {
			name = chat.Title
		}
		subscribed, err := ra.subs.ToggleSubscription(storage.TelegramUser{ChatID: chatId, Name: name})
		if err != nil {
			log.Err(err).Int64("chat", chatId).Msg("failed to toggle subscription")
			return ra.send(chatId, "No se pudo cambiar el estado de los avisos")
		}
		if subscribed {
			return ra.send(chatId, "🔔 Avisos activados: salida y cambios de líder")
		}
		return ra.send(chatId, "🔕 Avisos desactivados")
	}
}

var codeEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")

// escapeCode escapes text for a MarkdownV2 pre block.
func escapeCode(text string) string {
	return codeEscaper.Replace(text)
}
