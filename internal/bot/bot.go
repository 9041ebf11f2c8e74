package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/glebk/moodbot/internal/config"
	"github.com/glebk/moodbot/internal/domain"
	"github.com/glebk/moodbot/internal/service"
)

// sender is the part of the Telegram API the bot talks to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatState is the UI state of one chat between updates
type chatState struct {
	// pendingMood is set while the bot waits for the note of a picked mood
	pendingMood domain.Mood

	session      *service.ScreeningSession
	sessionMsgID int
	touched      time.Time
}

// Bot represents the Telegram bot
type Bot struct {
	api     sender
	botAPI  *tgbotapi.BotAPI
	moodLog *service.MoodLog
	engine  *service.ScreeningEngine
	config  *config.Config
	clock   domain.Clock
	logger  *zap.Logger

	// mu serializes update handling and the session janitor
	mu    sync.Mutex
	chats map[int64]*chatState
}

// New creates a new Bot instance
func New(token string, moodLog *service.MoodLog, engine *service.ScreeningEngine, cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	b := newBot(api, moodLog, engine, cfg, service.SystemClock{Location: cfg.Location}, logger)
	b.botAPI = api
	return b, nil
}

func newBot(api sender, moodLog *service.MoodLog, engine *service.ScreeningEngine, cfg *config.Config, clock domain.Clock, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:     api,
		moodLog: moodLog,
		engine:  engine,
		config:  cfg,
		clock:   clock,
		logger:  logger.Named("bot"),
		chats:   make(map[int64]*chatState),
	}
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.botAPI == nil {
		return fmt.Errorf("bot has no Telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.botAPI.GetUpdatesChan(u)

	// Start background routine to discard abandoned screenings
	go b.expireSessionsRoutine(ctx)

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate dispatches one update; updates are handled one at a time
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// expireSessionsRoutine runs in background and drops idle screening sessions
func (b *Bot) expireSessionsRoutine(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.expireSessions()
		}
	}
}

// expireSessions discards sessions untouched for longer than the TTL
func (b *Bot) expireSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	for chatID, st := range b.chats {
		if st.session == nil || now.Sub(st.touched) < b.config.SessionTTL {
			continue
		}

		b.logger.Info("Screening session expired",
			zap.Int64("chat_id", chatID),
			zap.String("kind", string(st.session.Kind())),
			zap.Int("question", st.session.Index()+1))

		editMsg := tgbotapi.NewEditMessageText(chatID, st.sessionMsgID, "⌛ Screening expired. Use /test to start again.")
		if _, err := b.api.Send(editMsg); err != nil {
			b.logger.Warn("Error editing message", zap.Error(err))
		}
		st.session = nil
	}
}

func (b *Bot) state(chatID int64) *chatState {
	st, ok := b.chats[chatID]
	if !ok {
		st = &chatState{}
		b.chats[chatID] = st
	}
	return st
}

// handleMessage handles incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if !b.config.IsOwner(chatID) {
		b.logger.Warn("Message from foreign chat ignored", zap.Int64("chat_id", chatID))
		b.sendMessage(chatID, "⛔️ This is a private bot.")
		return
	}

	// Check if command
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	// Handle keyboard buttons
	switch message.Text {
	case buttonMood:
		b.handleMood(chatID)
		return
	case buttonCalendar:
		b.handleCalendar(ctx, chatID, "")
		return
	case buttonRecent:
		b.handleRecent(ctx, chatID)
		return
	case buttonScreening:
		b.handleTestMenu(chatID, "")
		return
	case buttonSupport:
		b.sendMessage(chatID, supportText())
		return
	}

	// Free text is the note of a picked mood
	if st := b.state(chatID); st.pendingMood != "" {
		b.saveMood(ctx, chatID, st, message.Text)
		return
	}

	b.sendMessage(chatID, "Use /mood to log how you feel or /help to see what I can do.")
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := message.CommandArguments()

	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "mood":
		b.handleMood(chatID)
	case "calendar":
		b.handleCalendar(ctx, chatID, args)
	case "recent":
		b.handleRecent(ctx, chatID)
	case "test":
		b.handleTestMenu(chatID, args)
	case "support":
		b.sendMessage(chatID, supportText())
	case "cancel":
		b.handleCancel(chatID)
	case "help":
		b.handleHelp(chatID)
	default:
		b.sendMessage(chatID, "Unknown command. Use /help to learn more.")
	}
}

// handleStart handles the /start command
func (b *Bot) handleStart(message *tgbotapi.Message) {
	name := "there"
	if message.From != nil && message.From.FirstName != "" {
		name = message.From.FirstName
	}

	text := fmt.Sprintf(
		"👋 Hi %s!\n\n"+
			"I help you keep track of how you feel.\n\n"+
			"Use /mood to log today's mood\n"+
			"Use /calendar to see your month at a glance\n"+
			"Use /test for a short depression or anxiety screening\n"+
			"Use /support if you need someone to talk to",
		name,
	)

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = mainKeyboard()

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Error sending start message", zap.Error(err))
	}
}

// handleHelp handles the /help command
func (b *Bot) handleHelp(chatID int64) {
	text := "ℹ️ Commands\n\n" +
		"/mood - log how you feel right now\n" +
		"/calendar [YYYY-MM] - mood calendar of a month\n" +
		"/recent - your last five entries\n" +
		"/test [depression|anxiety] - self-screening questionnaire\n" +
		"/support - counseling and crisis contacts\n" +
		"/cancel - stop what you're doing"

	b.sendMessage(chatID, text)
}

// handleCancel drops any pending mood and screening of the chat
func (b *Bot) handleCancel(chatID int64) {
	st := b.state(chatID)
	if st.pendingMood == "" && st.session == nil {
		b.sendMessage(chatID, "Nothing to cancel.")
		return
	}

	st.pendingMood = ""
	st.session = nil
	b.sendMessage(chatID, "👌 Cancelled.")
}

// handleCallbackQuery handles button callbacks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.Message.Chat == nil {
		b.answerCallback(query.ID, "This button has expired")
		return
	}

	chatID := query.Message.Chat.ID
	if !b.config.IsOwner(chatID) {
		b.answerCallback(query.ID, "⛔️ This is a private bot.")
		return
	}

	// Parse callback data
	action, arg, _ := strings.Cut(query.Data, ":")

	switch action {
	case actionMood:
		b.handleMoodPicked(query, domain.Mood(arg))
	case actionNote:
		b.handleNoteSkipped(ctx, query)
	case actionTest:
		b.answerCallback(query.ID, "")
		b.startTest(chatID, domain.TestKind(arg))
	case actionAnswer:
		b.handleAnswer(query, arg)
	case actionBack:
		b.handleBack(query)
	case actionCancel:
		b.handleStopTest(query)
	default:
		b.answerCallback(query.ID, "Unknown action")
	}
}

// sendMessage sends a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Error sending message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// answerCallback answers a callback query
func (b *Bot) answerCallback(callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Warn("Error answering callback", zap.Error(err))
	}
}

// editMessage replaces the text of a sent message, dropping its keyboard
func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	editMsg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Send(editMsg); err != nil {
		b.logger.Warn("Error editing message", zap.Error(err))
	}
}

// editMessageWithKeyboard replaces the text and inline keyboard of a message
func (b *Bot) editMessageWithKeyboard(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	editMsg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Send(editMsg); err != nil {
		b.logger.Warn("Error editing message", zap.Error(err))
	}
}
