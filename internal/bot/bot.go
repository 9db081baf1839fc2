// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"study-assistant-bot/internal/config"
	"study-assistant-bot/internal/handler"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

// Bot wraps the telebot instance with the conversation handler.
type Bot struct {
	bot     *tele.Bot
	cfg     *config.Config
	handler *handler.Handler
}

// Dependencies holds all the services needed by the bot handlers.
type Dependencies struct {
	Config   *config.Config
	Sessions *session.Store
	Ledger   *service.LedgerService
	Gate     *service.GateService
	Referral *service.ReferralService
	Tasks    *service.TaskService
	Support  *service.SupportService
	Stats    *service.StatsService
	Settings *service.SettingsService
	Answers  *service.AnswerService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.handler = handler.New(&handler.Dependencies{
		Config:   deps.Config,
		Sessions: deps.Sessions,
		Ledger:   deps.Ledger,
		Gate:     deps.Gate,
		Referral: deps.Referral,
		Tasks:    deps.Tasks,
		Support:  deps.Support,
		Stats:    deps.Stats,
		Settings: deps.Settings,
		Answers:  deps.Answers,
		Notifier: b,
	})

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// Notify delivers a message to a user's private chat. It satisfies the
// service.Notifier contract used for referral rewards, transfers, support
// replies and broadcasts.
func (b *Bot) Notify(recipientID int64, message string) error {
	_, err := b.bot.Send(&tele.User{ID: recipientID}, message)
	return err
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(PrivateOnlyMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handler.HandleStart)
	b.bot.Handle("/cancel", b.handler.HandleCancel)
	b.bot.Handle("/skip", b.handler.HandleSkip)
	b.bot.Handle("/admin", b.handler.HandleText)

	// Everything else is free text routed on the session state.
	b.bot.Handle(tele.OnText, b.handler.HandleText)

	// Inline buttons: ad ritual, referral skip, tasks, support replies.
	b.bot.Handle(tele.OnCallback, b.handler.HandleCallback)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
