package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/rs/zerolog"
)

const openAPIBase = "https://open.feishu.cn/open-apis"

// Message represents a received or fetched Feishu message
type Message struct {
	ChatID      string
	MsgID       string
	MsgType     string // text, post, image, file
	ChatType    string // p2p (private), group
	ParentID    string // Message this one replies to
	Text        string // Text content with mention placeholders resolved
	Attachments int    // Images or files carried by the message
	Sender      *Sender
	Mentions    []Mention // Mentions in Text, in order of appearance
	CreateTime  string
}

// HasAttachment checks if the message carries images or files
func (m *Message) HasAttachment() bool {
	return m.Attachments > 0
}

// Sender represents the message sender
type Sender struct {
	SenderID   string // open_id of a user, app id of a bot
	SenderType string // user, app
}

// Mention is one resolved @mention. Offset and Length are byte positions in Message.Text.
type Mention struct {
	Key    string // placeholder key, e.g. @_user_1
	Name   string
	OpenID string
	Offset int
	Length int
}

// MessageHandler is the callback for received messages
type MessageHandler func(msg *Message)

// Client is the Feishu API client
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	log       zerolog.Logger

	mu        sync.RWMutex
	botOpenID string
	botName   string
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, log zerolog.Logger) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
		log:       log.With().Str("component", "feishu").Logger(),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// BotOpenID returns the bot's own open_id, empty until Start or FetchBotInfo succeeded
func (c *Client) BotOpenID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.botOpenID
}

// BotName returns the bot's display name as reported by Feishu
func (c *Client) BotName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.botName
}

// Start connects to Feishu via WebSocket and blocks until ctx is done
func (c *Client) Start(ctx context.Context) error {
	// Note: Must return quickly so SDK can send ACK, otherwise Feishu will retry due to timeout
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(_ context.Context, event *larkim.P2MessageReceiveV1) error {
			go c.handleEvent(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	c.log.Info().Msg("starting websocket connection")
	return c.wsCli.Start(ctx)
}

// FetchBotInfo fetches the bot's own open_id and name
func (c *Client) FetchBotInfo(ctx context.Context) error {
	tokenReq := fmt.Sprintf(`{"app_id":%q,"app_secret":%q}`, c.appID, c.appSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		openAPIBase+"/auth/v3/tenant_access_token/internal", strings.NewReader(tokenReq))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	tokenResp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	defer tokenResp.Body.Close()

	var tokenResult struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenResult); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if tokenResult.Code != 0 {
		return fmt.Errorf("token API error: %s", tokenResult.Msg)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, openAPIBase+"/bot/v3/info", nil)
	if err != nil {
		return fmt.Errorf("build bot info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenResult.TenantAccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	defer resp.Body.Close()

	var botResult struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Bot  struct {
			OpenID  string `json:"open_id"`
			AppName string `json:"app_name"`
		} `json:"bot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&botResult); err != nil {
		return fmt.Errorf("decode bot info: %w", err)
	}
	if botResult.Code != 0 {
		return fmt.Errorf("bot info API error: %s", botResult.Msg)
	}

	c.mu.Lock()
	c.botOpenID = botResult.Bot.OpenID
	c.botName = botResult.Bot.AppName
	c.mu.Unlock()

	c.log.Info().Str("open_id", botResult.Bot.OpenID).Str("name", botResult.Bot.AppName).Msg("bot identity resolved")
	return nil
}

func (c *Client) handleEvent(event *larkim.P2MessageReceiveV1) {
	msg := ConvertEvent(event)
	if msg == nil {
		return
	}

	// Filter out messages sent by bots, including our own replies
	if msg.Sender != nil && msg.Sender.SenderType == "app" {
		return
	}

	c.log.Debug().
		Str("chat_id", msg.ChatID).
		Str("chat_type", msg.ChatType).
		Str("msg_type", msg.MsgType).
		Str("message_id", msg.MsgID).
		Msg("message received")

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// ConvertEvent turns a receive event into a Message. Unsupported message types return nil.
func ConvertEvent(event *larkim.P2MessageReceiveV1) *Message {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return nil
	}
	raw := event.Event.Message

	msg := &Message{
		ChatID:     deref(raw.ChatId),
		MsgID:      deref(raw.MessageId),
		MsgType:    deref(raw.MessageType),
		ChatType:   deref(raw.ChatType),
		ParentID:   deref(raw.ParentId),
		CreateTime: deref(raw.CreateTime),
	}

	if s := event.Event.Sender; s != nil {
		msg.Sender = &Sender{SenderType: deref(s.SenderType)}
		if s.SenderId != nil {
			msg.Sender.SenderID = deref(s.SenderId.OpenId)
		}
	}

	var mentions []Mention
	for _, m := range raw.Mentions {
		if m == nil {
			continue
		}
		mention := Mention{Key: deref(m.Key), Name: deref(m.Name)}
		if m.Id != nil {
			mention.OpenID = deref(m.Id.OpenId)
		}
		mentions = append(mentions, mention)
	}

	if !parseContent(msg, deref(raw.Content), mentions) {
		return nil
	}
	return msg
}

// parseContent fills Text, Mentions and Attachments from the raw JSON content
func parseContent(msg *Message, content string, mentions []Mention) bool {
	var text string
	switch msg.MsgType {
	case "text":
		text = parseTextContent(content)
	case "post":
		text, msg.Attachments = parsePostContent(content)
	case "image", "file", "media":
		msg.Attachments = 1
	default:
		return false
	}
	msg.Text, msg.Mentions = resolveMentions(text, mentions)
	return true
}

// parseTextContent extracts text from a text message
func parseTextContent(content string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return parsed.Text
}

// parsePostContent extracts text and counts images from a rich text message.
// Mention tags are emitted as their placeholder key so resolveMentions can locate them.
func parsePostContent(content string) (string, int) {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag      string `json:"tag"`
			Text     string `json:"text,omitempty"`
			ImageKey string `json:"image_key,omitempty"`
			FileKey  string `json:"file_key,omitempty"`
			UserID   string `json:"user_id,omitempty"`
			UserName string `json:"user_name,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", 0
	}

	var lines []string
	attachments := 0
	if parsed.Title != "" {
		lines = append(lines, parsed.Title)
	}
	for _, line := range parsed.Content {
		var sb strings.Builder
		for _, elem := range line {
			switch elem.Tag {
			case "text", "a":
				sb.WriteString(elem.Text)
			case "at":
				if strings.HasPrefix(elem.UserID, "@_") {
					sb.WriteString(elem.UserID)
				} else if elem.UserName != "" {
					sb.WriteString("@" + elem.UserName)
				}
			case "img", "media":
				if elem.ImageKey != "" || elem.FileKey != "" {
					attachments++
				}
			}
		}
		if sb.Len() > 0 {
			lines = append(lines, sb.String())
		}
	}
	return strings.Join(lines, "\n"), attachments
}

// resolveMentions replaces placeholders (@_user_1) with "@Name" and records
// where each one ended up in the resulting text
func resolveMentions(text string, mentions []Mention) (string, []Mention) {
	if len(mentions) == 0 || text == "" {
		return text, nil
	}

	var sb strings.Builder
	var spans []Mention
	for i := 0; i < len(text); {
		if text[i] == '@' {
			if m, ok := longestKeyAt(text[i:], mentions); ok {
				display := "@" + m.Name
				m.Offset = sb.Len()
				m.Length = len(display)
				spans = append(spans, m)
				sb.WriteString(display)
				i += len(m.Key)
				continue
			}
		}
		sb.WriteByte(text[i])
		i++
	}
	return sb.String(), spans
}

// longestKeyAt picks the longest placeholder key prefixing s, so @_user_10 beats @_user_1
func longestKeyAt(s string, mentions []Mention) (Mention, bool) {
	var best Mention
	found := false
	for _, m := range mentions {
		if m.Key == "" || !strings.HasPrefix(s, m.Key) {
			continue
		}
		if !found || len(m.Key) > len(best.Key) {
			best, found = m, true
		}
	}
	return best, found
}

// SendText sends a text message to a chat and returns the new message id
func (c *Client) SendText(ctx context.Context, chatID, text string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(textContent(text)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("send message error: %s", resp.Msg)
	}

	c.log.Debug().Str("chat_id", chatID).Msg("message sent")
	return deref(resp.Data.MessageId), nil
}

// ReplyText posts text as a quoted reply to messageID and returns the new message id
func (c *Client) ReplyText(ctx context.Context, messageID, text string) (string, error) {
	req := larkim.NewReplyMessageReqBuilder().
		MessageId(messageID).
		Body(larkim.NewReplyMessageReqBodyBuilder().
			MsgType(larkim.MsgTypeText).
			Content(textContent(text)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Reply(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reply message failed: %w", err)
	}
	if !resp.Success() {
		return "", fmt.Errorf("reply message error: %s", resp.Msg)
	}

	c.log.Debug().Str("reply_to", messageID).Msg("reply sent")
	return deref(resp.Data.MessageId), nil
}

// DeleteMessage recalls a message. Bots can only recall their own messages
// unless they are group owner or admin.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	req := larkim.NewDeleteMessageReqBuilder().
		MessageId(messageID).
		Build()

	resp, err := c.larkCli.Im.Message.Delete(ctx, req)
	if err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("delete message error: %s", resp.Msg)
	}
	return nil
}

// GetMessage fetches a single message, used to resolve reply targets
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	req := larkim.NewGetMessageReqBuilder().
		MessageId(messageID).
		Build()

	resp, err := c.larkCli.Im.Message.Get(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("get message failed: %w", err)
	}
	if !resp.Success() {
		return nil, fmt.Errorf("get message error: %s", resp.Msg)
	}
	if resp.Data == nil || len(resp.Data.Items) == 0 {
		return nil, fmt.Errorf("message %s not found", messageID)
	}

	item := resp.Data.Items[0]
	if item.Deleted != nil && *item.Deleted {
		return nil, fmt.Errorf("message %s was deleted", messageID)
	}

	msg := &Message{
		ChatID:     deref(item.ChatId),
		MsgID:      deref(item.MessageId),
		MsgType:    deref(item.MsgType),
		ParentID:   deref(item.ParentId),
		CreateTime: deref(item.CreateTime),
	}
	if item.Sender != nil {
		msg.Sender = &Sender{SenderID: deref(item.Sender.Id), SenderType: deref(item.Sender.SenderType)}
	}

	var mentions []Mention
	for _, m := range item.Mentions {
		if m == nil {
			continue
		}
		mentions = append(mentions, Mention{Key: deref(m.Key), Name: deref(m.Name), OpenID: deref(m.Id)})
	}

	content := ""
	if item.Body != nil {
		content = deref(item.Body.Content)
	}
	if !parseContent(msg, content, mentions) {
		// Keep unsupported messages addressable; they simply have no text
		msg.Text = ""
	}
	return msg, nil
}

func textContent(text string) string {
	contentJSON, _ := json.Marshal(map[string]string{"text": text})
	return string(contentJSON)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
