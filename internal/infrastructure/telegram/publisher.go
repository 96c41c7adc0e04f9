package telegram

import (
	"context"
	"fmt"
	"strings"

	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

// Publisher delivers approved posts to the channel of their
// specialization via the publishing bot.
type Publisher struct {
	client   *client
	channels map[string]string
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher registers the publishing bot token and the
// specialization-to-channel routing table.
func NewPublisher(botToken string, channels map[string]string) *Publisher {
	return &Publisher{
		client:   newClient(botToken),
		channels: channels,
	}
}

// Publish sends the post to its channel and returns a reference of
// the form "<chat>:<message_id>".
func (p *Publisher) Publish(ctx context.Context, post domain.Post) (string, error) {
	chatID := p.channels[string(post.Specialization)]
	if chatID == "" {
		chatID = p.channels["default"]
	}
	if chatID == "" {
		return "", fmt.Errorf("no channel for specialization %q", post.Specialization)
	}

	messageID, err := p.client.sendMessage(ctx, chatID, formatPost(post))
	if err != nil {
		return "", fmt.Errorf("publish post %d: %w", post.ID, err)
	}
	return fmt.Sprintf("%s:%d", chatID, messageID), nil
}

func formatPost(post domain.Post) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s*\n\n", post.Title)
	b.WriteString(post.Body)
	b.WriteString("\n")

	if post.SourceName != "" {
		fmt.Fprintf(&b, "\nИсточник: [%s](%s)\n", post.SourceName, post.SourceURL)
	}
	if post.ReadingTime > 0 {
		fmt.Fprintf(&b, "Время чтения: %d мин\n", post.ReadingTime)
	}
	if len(post.Hashtags) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(post.Hashtags, " "))
	}

	return b.String()
}
