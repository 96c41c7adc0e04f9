package telegram

import (
	"context"
	"fmt"
	"strings"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

// ModerationSender delivers pending posts to the moderator chat with
// queue position so the reviewer can pace the batch.
type ModerationSender struct {
	client *client
	chatID string
}

var _ ports.ModerationUI = (*ModerationSender)(nil)

// NewModerationSender registers the moderation bot token and the
// moderator chat.
func NewModerationSender(botToken, chatID string) *ModerationSender {
	return &ModerationSender{
		client: newClient(botToken),
		chatID: chatID,
	}
}

// SendForReview posts the candidate with its score card and queue
// position to the moderator chat.
func (m *ModerationSender) SendForReview(ctx context.Context, post domain.Post, position, total int) error {
	if _, err := m.client.sendMessage(ctx, m.chatID, formatReview(post, position, total)); err != nil {
		return fmt.Errorf("send for review post %d: %w", post.ID, err)
	}
	return nil
}

func formatReview(post domain.Post, position, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "На модерацию %d/%d\n", position, total)
	fmt.Fprintf(&b, "ID: %d | %s | %s | цикл %d\n", post.ID, post.Specialization, post.ContentType, post.Cycle)
	fmt.Fprintf(&b, "Оценка: %d/25\n\n", post.Score)

	fmt.Fprintf(&b, "*%s*\n\n", post.Title)
	b.WriteString(post.Body)
	b.WriteString("\n")

	if post.SourceURL != "" {
		fmt.Fprintf(&b, "\nИсточник: %s\n", post.SourceURL)
	}

	return b.String()
}
