package clients

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"

	"GoLetterAI/app/letters"
)

// Discord rejects messages longer than this.
const discordMessageLimit = 2000

var _ Interface = &DiscordClient{}

type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordClient struct {
	session   messageSender
	channelID string
}

func NewDiscordClientFromConfig(cfg map[string]string) (*DiscordClient, error) {
	token := firstNonEmpty(cfg["token"], os.Getenv("DISCORD_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("discord token is empty; set config.token or DISCORD_TOKEN")
	}
	channelID := firstNonEmpty(cfg["channel_id"], os.Getenv("DISCORD_CHANNEL_ID"))
	if channelID == "" {
		return nil, fmt.Errorf("discord channel is empty; set config.channel_id or DISCORD_CHANNEL_ID")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordClient{session: session, channelID: channelID}, nil
}

func (c *DiscordClient) Name() string {
	return "discord"
}

func (c *DiscordClient) Notify(_ context.Context, doc letters.Document) error {
	return c.SendMessage(c.channelID, reviewMessage(doc))
}

func (c *DiscordClient) Close() error {
	if s, ok := c.session.(*discordgo.Session); ok {
		return s.Close()
	}
	return nil
}

func (c *DiscordClient) SendMessage(channelID, content string) error {
	if channelID == "" {
		return fmt.Errorf("channelID is empty")
	}
	if len(content) > discordMessageLimit {
		content = content[:discordMessageLimit-3] + "..."
	}
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func reviewMessage(doc letters.Document) string {
	d := doc.ApprovalDetails
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📝 Letter `%s` needs manual review\n", doc.ID))
	sb.WriteString(fmt.Sprintf("Customer: %s (policy %s)\n", doc.CustomerName, doc.PolicyNumber))
	sb.WriteString(fmt.Sprintf("Type: %s | Rounds: %d | Status: %s\n", doc.LetterType, doc.TotalRounds, doc.ComplianceStatus))
	sb.WriteString(fmt.Sprintf("Writer %s | Compliance %s | Customer service %s\n",
		mark(d.WriterApproved), mark(d.ComplianceApproved), mark(d.CustomerServiceApproved)))
	sb.WriteString("```\n")
	sb.WriteString(doc.Content)
	sb.WriteString("\n```")
	return sb.String()
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
