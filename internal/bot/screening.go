package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/glebk/moodbot/internal/domain"
)

// handleTestMenu starts the named test, or offers the available ones
func (b *Bot) handleTestMenu(chatID int64, arg string) {
	if kind := strings.ToLower(strings.TrimSpace(arg)); kind != "" {
		b.startTest(chatID, domain.TestKind(kind))
		return
	}

	msg := tgbotapi.NewMessage(chatID, "🧠 Which screening would you like to take?\n\n"+b.engine.Disclaimer())
	msg.ReplyMarkup = testMenuKeyboard(b.engine)

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Error sending test menu", zap.Error(err))
	}
}

// startTest replaces any running session of the chat with a new one
func (b *Bot) startTest(chatID int64, kind domain.TestKind) {
	session, err := b.engine.StartSession(kind)
	if err != nil {
		b.sendMessage(chatID, fmt.Sprintf("❌ Unknown test %q. Use /test to pick one.", kind))
		return
	}

	text, markup := questionView(session)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup

	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("Error sending question", zap.Error(err))
		return
	}

	st := b.state(chatID)
	st.session = session
	st.sessionMsgID = sent.MessageID
	st.touched = b.clock.Now()

	b.logger.Info("Screening started", zap.Int64("chat_id", chatID), zap.String("kind", string(kind)))
}

// activeSession returns the chat's session if query was sent from its message
func (b *Bot) activeSession(query *tgbotapi.CallbackQuery) (*chatState, bool) {
	st := b.state(query.Message.Chat.ID)
	if st.session == nil || st.sessionMsgID != query.Message.MessageID {
		b.answerCallback(query.ID, "This screening is no longer active")
		return nil, false
	}
	st.touched = b.clock.Now()
	return st, true
}

// handleAnswer records the picked option and shows the next question or the result
func (b *Bot) handleAnswer(query *tgbotapi.CallbackQuery, arg string) {
	st, ok := b.activeSession(query)
	if !ok {
		return
	}

	chatID := query.Message.Chat.ID
	score, err := strconv.Atoi(arg)
	if err == nil {
		err = st.session.Answer(score)
	}
	if err != nil {
		// Buttons only carry scores of the question they were built for
		if errors.Is(err, domain.ErrInvalidAnswer) || errors.Is(err, strconv.ErrSyntax) {
			b.logger.DPanic("Answer rejected", zap.String("data", query.Data), zap.Error(err))
		} else {
			b.logger.Warn("Answer rejected", zap.String("data", query.Data), zap.Error(err))
		}
		b.answerCallback(query.ID, "Please select an option")
		return
	}
	b.answerCallback(query.ID, "")

	if !st.session.IsComplete() {
		text, markup := questionView(st.session)
		b.editMessageWithKeyboard(chatID, st.sessionMsgID, text, markup)
		return
	}

	session := st.session
	st.session = nil

	result, err := session.Result()
	if err != nil {
		b.logger.Error("Error scoring screening", zap.String("kind", string(session.Kind())), zap.Error(err))
		b.editMessage(chatID, st.sessionMsgID, "⚠️ Something went wrong while scoring. Please try again with /test.")
		return
	}

	b.logger.Info("Screening completed",
		zap.Int64("chat_id", chatID),
		zap.String("kind", string(result.Kind)),
		zap.String("tier", result.Tier.Name))

	b.editMessage(chatID, st.sessionMsgID, resultText(result, session.Title(), b.engine.Disclaimer()))
}

// handleBack shows the previous question, or exits from the first one
func (b *Bot) handleBack(query *tgbotapi.CallbackQuery) {
	st, ok := b.activeSession(query)
	if !ok {
		return
	}
	b.answerCallback(query.ID, "")

	if !st.session.GoBack() {
		b.exitTest(query.Message.Chat.ID, st)
		return
	}

	text, markup := questionView(st.session)
	b.editMessageWithKeyboard(query.Message.Chat.ID, st.sessionMsgID, text, markup)
}

// handleStopTest discards the running session
func (b *Bot) handleStopTest(query *tgbotapi.CallbackQuery) {
	st, ok := b.activeSession(query)
	if !ok {
		return
	}
	b.answerCallback(query.ID, "")
	b.exitTest(query.Message.Chat.ID, st)
}

func (b *Bot) exitTest(chatID int64, st *chatState) {
	b.logger.Info("Screening cancelled",
		zap.Int64("chat_id", chatID),
		zap.String("kind", string(st.session.Kind())),
		zap.Int("question", st.session.Index()+1))

	st.session = nil
	b.editMessage(chatID, st.sessionMsgID, "Screening cancelled. Use /test whenever you're ready.")
}
