package telegramimpl

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/fedi-albums/internal/telegram"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramImpl struct {
	bot     sender
	channel string
	logger  logger.Logger
}

var _ telegram.Client = (*TelegramImpl)(nil)

// New returns a Telegram notifier, or a no-op one when TELEGRAM_TOKEN is empty.
func New(opts Opts) (telegram.Client, error) {
	log := opts.Logger.WithComponent("Telegram")
	if opts.Config.Telegram.Token == "" || opts.Config.Telegram.Channel == "" {
		log.Info("Telegram notifications disabled")
		return telegram.Noop{}, nil
	}

	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		log.Error("Error creating bot", "error", err)
		return nil, err
	}

	return newWithSender(tgBot, opts.Config.Telegram.Channel, log), nil
}

func newWithSender(bot sender, channel string, log logger.Logger) *TelegramImpl {
	return &TelegramImpl{
		bot:     bot,
		channel: "@" + channel,
		logger:  log,
	}
}
