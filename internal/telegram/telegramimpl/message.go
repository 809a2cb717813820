package telegramimpl

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/pkg/formatter"
)

const (
	maxListedPhotos = 5
	maxErrorLength  = 300
)

// NotifyNewPhotos posts a summary of newly linked photos to the channel.
func (tg *TelegramImpl) NotifyNewPhotos(ctx context.Context, album domain.Album, photos []domain.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	return tg.send(ctx, newPhotosMessage(album, photos))
}

// NotifyRefreshFailed reports a refresh that ended in a failure.
func (tg *TelegramImpl) NotifyRefreshFailed(ctx context.Context, album domain.Album, cause error) error {
	return tg.send(ctx, refreshFailedMessage(album, cause))
}

func (tg *TelegramImpl) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessageToChannel(tg.channel, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := tg.bot.Send(msg); err != nil {
		tg.logger.Error("Error sending message to channel", "channel", tg.channel, "error", err)
		return fmt.Errorf("failed to send message: %w", err)
	}

	tg.logger.Info("Message sent to channel", "channel", tg.channel)
	return nil
}

func albumName(album domain.Album) string {
	if album.Title != "" {
		return album.Title
	}
	return album.ID
}

func newPhotosMessage(album domain.Album, photos []domain.Photo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📷 *%s*\n%s\n",
		formatter.EscapeMarkdownV2(albumName(album)),
		formatter.EscapeMarkdownV2(formatter.Plural(len(photos), "new photo", "new photos")),
	)

	for i, p := range photos {
		if i == maxListedPhotos {
			fmt.Fprintf(&sb, "%s\n", formatter.EscapeMarkdownV2(fmt.Sprintf("and %d more", len(photos)-maxListedPhotos)))
			break
		}
		author := p.Author.Handle
		if author == "" {
			author = p.Author.Username
		}
		link := p.PostURL
		if link == "" {
			link = p.URL
		}
		fmt.Fprintf(&sb, "• [%s](%s)\n",
			formatter.EscapeMarkdownV2("@"+author),
			escapeLinkURL(link),
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func refreshFailedMessage(album domain.Album, cause error) string {
	return fmt.Sprintf("⚠️ *%s*\nrefresh failed: %s",
		formatter.EscapeMarkdownV2(albumName(album)),
		formatter.EscapeMarkdownV2(formatter.Truncate(cause.Error(), maxErrorLength)),
	)
}

// escapeLinkURL escapes the two characters MarkdownV2 reserves inside (...).
func escapeLinkURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`).Replace(u)
}
