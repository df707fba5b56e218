package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/chains"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/coingecko"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/config"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/helpers"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/inspector"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/retry"
	"github.com/vaskers5/crypto-token-fraud-analyzer/internal/telemetry"
)

// messageLimit is Telegram's hard cap per message; longer replies are
// split on rune boundaries.
const messageLimit = 4096

type chatState int

const (
	stateIdle chatState = iota
	stateAwaitSymbol
	stateAwaitChain
)

// session tracks one chat's position in the conversation. A NeedsChain
// inspection parks the resolved platforms here until the user picks one.
type session struct {
	state     chatState
	symbol    string
	platforms map[string]string
}

type Controller struct {
	Bot  *tgbotapi.BotAPI
	Cfg  *config.Config
	Path string

	allowedChatID int64

	inspector *inspector.Inspector
	registry  *chains.Registry

	sessionsMu sync.Mutex
	sessions   map[int64]*session

	// sem bounds concurrent inspections so a slow upstream never stalls
	// the update loop.
	sem chan struct{}
}

func NewController(cfg *config.Config, path string, insp *inspector.Inspector, registry *chains.Registry) (*Controller, error) {
	if cfg.TELEGRAM_TOKEN == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TELEGRAM_TOKEN)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	poolSize := cfg.WORKER_POOL_SIZE
	if poolSize < 1 {
		poolSize = 1
	}
	return &Controller{
		Bot:           bot,
		Cfg:           cfg,
		Path:          path,
		allowedChatID: cfg.TELEGRAM_CHAT_ID,
		inspector:     insp,
		registry:      registry,
		sessions:      make(map[int64]*session),
		sem:           make(chan struct{}, poolSize),
	}, nil
}

func (c *Controller) reply(chatID int64, text string) {
	for _, chunk := range chunkMessage(text, messageLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = "Markdown"
		if _, err := c.Bot.Send(msg); err != nil {
			// Reports can contain characters Telegram rejects as broken
			// Markdown; retry the chunk as plain text.
			plain := tgbotapi.NewMessage(chatID, chunk)
			if _, err := c.Bot.Send(plain); err != nil {
				telemetry.Warnf("[telegram] send failed: %v", err)
			}
		}
	}
}

// chunkMessage splits text into rune-bounded pieces of at most limit
// runes, preferring to break after a newline.
func chunkMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func (c *Controller) session(chatID int64) *session {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	s, ok := c.sessions[chatID]
	if !ok {
		s = &session{}
		c.sessions[chatID] = s
	}
	return s
}

func (c *Controller) setSession(chatID int64, s *session) {
	c.sessionsMu.Lock()
	c.sessions[chatID] = s
	c.sessionsMu.Unlock()
}

func (c *Controller) resetSession(chatID int64) {
	c.sessionsMu.Lock()
	delete(c.sessions, chatID)
	c.sessionsMu.Unlock()
}

func (c *Controller) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.Bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			switch {
			case update.CallbackQuery != nil:
				c.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				c.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (c *Controller) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// allow only configured chat
	if c.allowedChatID != 0 && chatID != c.allowedChatID {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		c.handleCommand(ctx, chatID, text)
		return
	}

	switch c.session(chatID).state {
	case stateAwaitSymbol:
		c.dispatchInspect(ctx, chatID, text)
	case stateAwaitChain:
		c.dispatchSelectChain(ctx, chatID, text)
	default:
		// ignore non-command chatter outside a conversation
	}
}

func (c *Controller) handleCommand(ctx context.Context, chatID int64, text string) {
	switch {
	case strings.HasPrefix(text, "/start"):
		c.setSession(chatID, &session{state: stateAwaitSymbol})
		c.reply(chatID, "Hi! Send me a token ticker (for example `PEPE`) and I will check it for scam indicators.\nUse /cancel to stop, /help for all commands.")
	case strings.HasPrefix(text, "/cancel"):
		c.resetSession(chatID)
		c.reply(chatID, "Cancelled. Send /start to inspect another token.")
	case strings.HasPrefix(text, "/help"), strings.HasPrefix(text, "/commands"):
		c.reply(chatID,
			"*Available Commands:*\n\n"+
				"/start – Begin an inspection, then send a ticker\n"+
				"/address <0x…> – Inspect an Ethereum contract address directly\n"+
				"/cancel – Abort the current conversation\n\n"+
				"/status – Show current state\n"+
				"/debug on|off – enable/disable debug logs\n"+
				"/tail [n] – show last n log lines (default 50)\n"+
				"/whoami – Show your Telegram chat ID\n"+
				"/set_chat <id> – restrict bot to a specific chat ID\n")
	case strings.HasPrefix(text, "/address"):
		parts := strings.Fields(text)
		if len(parts) < 2 {
			c.reply(chatID, "Usage: /address <contract_address>")
			return
		}
		addr, err := helpers.ValidateAddress(parts[1])
		if err != nil {
			c.reply(chatID, "That does not look like a valid contract address.")
			return
		}
		c.dispatch(ctx, chatID, func(ctx context.Context) {
			res, err := c.inspector.InspectAddress(ctx, shortAddress(addr.Hex()), "ethereum", addr.Hex())
			if err != nil {
				c.replyError(chatID, err)
				return
			}
			c.sendResult(chatID, res)
		})
	case strings.HasPrefix(text, "/status"):
		state := "idle"
		switch c.session(chatID).state {
		case stateAwaitSymbol:
			state = "waiting for a ticker"
		case stateAwaitChain:
			state = "waiting for a chain choice"
		}
		c.reply(chatID, fmt.Sprintf(
			"State: *%s*\nKnown chains: %d\nInspections in flight: %d/%d",
			state, len(c.registry.IDs()), len(c.sem), cap(c.sem)))
	case strings.HasPrefix(text, "/debug "):
		arg := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(text, "/debug")))
		on := arg == "on" || arg == "1" || arg == "true"
		telemetry.EnableDebug(on)
		c.reply(chatID, fmt.Sprintf("debug: %v", on))
	case strings.HasPrefix(text, "/tail"):
		n := 50
		parts := strings.Fields(text)
		if len(parts) > 1 {
			fmt.Sscan(parts[1], &n)
			if n <= 0 {
				n = 50
			}
			if n > 500 {
				n = 500
			} // avoid flooding telegram
		}
		lines := telemetry.Tail(n)
		if len(lines) == 0 {
			c.reply(chatID, "log buffer empty")
			return
		}
		var buf strings.Builder
		for _, ln := range lines {
			if buf.Len()+len(ln)+1 > 3500 {
				c.reply(chatID, "```\n"+buf.String()+"\n```")
				buf.Reset()
			}
			buf.WriteString(ln)
			buf.WriteByte('\n')
		}
		if buf.Len() > 0 {
			c.reply(chatID, "```\n"+buf.String()+"\n```")
		}
	case strings.HasPrefix(text, "/whoami"):
		c.reply(chatID, fmt.Sprintf("Your chat ID: `%d`", chatID))
	case strings.HasPrefix(text, "/set_chat "):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/set_chat"))
		var id int64
		fmt.Sscan(arg, &id)
		if id == 0 {
			c.reply(chatID, "Provide a valid numeric chat ID")
			return
		}
		c.Cfg.TELEGRAM_CHAT_ID = id
		c.allowedChatID = id
		_ = config.Save(c.Path, c.Cfg)
		c.reply(chatID, fmt.Sprintf("Allowed chat set to %d", id))
	default:
		c.reply(chatID, "Unknown command. Try /help.")
	}
}

func (c *Controller) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if c.allowedChatID != 0 && chatID != c.allowedChatID {
		return
	}
	// acknowledge so the client stops the spinner
	_, _ = c.Bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	chain := strings.TrimPrefix(cb.Data, "chain:")
	if chain == cb.Data {
		return
	}
	c.dispatchSelectChain(ctx, chatID, chain)
}

// dispatch hands the inspection to the worker pool without ever blocking
// the update loop.
func (c *Controller) dispatch(ctx context.Context, chatID int64, run func(context.Context)) {
	select {
	case c.sem <- struct{}{}:
	default:
		c.reply(chatID, "Too many inspections in flight right now. Try again in a moment.")
		return
	}
	go func() {
		defer func() { <-c.sem }()
		run(ctx)
	}()
}

func (c *Controller) dispatchInspect(ctx context.Context, chatID int64, symbol string) {
	symbol = helpers.NormalizeSymbol(symbol)
	c.reply(chatID, fmt.Sprintf("Inspecting *%s*…", symbol))
	c.dispatch(ctx, chatID, func(ctx context.Context) {
		res, err := c.inspector.Inspect(ctx, symbol)
		if err != nil {
			c.resetSession(chatID)
			c.replyError(chatID, err)
			return
		}
		if res.NeedsChain {
			c.setSession(chatID, &session{
				state:     stateAwaitChain,
				symbol:    res.Symbol,
				platforms: res.Platforms,
			})
			c.askChain(chatID, res)
			return
		}
		c.resetSession(chatID)
		c.sendResult(chatID, res)
	})
}

func (c *Controller) dispatchSelectChain(ctx context.Context, chatID int64, chain string) {
	s := c.session(chatID)
	if s.state != stateAwaitChain {
		return
	}
	chain = strings.ToLower(strings.TrimSpace(chain))
	c.dispatch(ctx, chatID, func(ctx context.Context) {
		res, err := c.inspector.SelectChain(ctx, s.symbol, s.platforms, chain)
		if err != nil {
			var unknown *inspector.UnknownChainError
			if errors.As(err, &unknown) {
				// stay in AWAIT_CHAIN so the user can retry
				text := fmt.Sprintf("I don't know the chain *%s*.", unknown.Chain)
				if len(unknown.Suggestions) > 0 {
					text += "\nDid you mean: " + strings.Join(unknown.Suggestions, ", ") + "?"
				}
				c.reply(chatID, text)
				return
			}
			c.resetSession(chatID)
			c.replyError(chatID, err)
			return
		}
		c.resetSession(chatID)
		c.sendResult(chatID, res)
	})
}

// askChain presents the deployed chains as an inline keyboard; typing the
// chain name works too.
func (c *Controller) askChain(chatID int64, res *inspector.Result) {
	ids := make([]string, 0, len(res.Platforms))
	for chain := range res.Platforms {
		ids = append(ids, chain)
	}
	sort.Strings(ids)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range ids {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(id, "chain:"+id),
		))
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"*%s* is deployed on %d chains. Pick one (or type its name):", res.Symbol, len(ids)))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := c.Bot.Send(msg); err != nil {
		telemetry.Warnf("[telegram] send failed: %v", err)
	}
}

func (c *Controller) sendResult(chatID int64, res *inspector.Result) {
	if res.NativeChain != "" {
		c.reply(chatID, fmt.Sprintf(
			"*%s* is the native asset of *%s*, not a token contract.\n\n%s",
			res.Symbol, res.NativeChain, res.Report))
		return
	}

	verdict := "NOT A SCAM"
	if res.Prediction != nil && *res.Prediction {
		verdict = "LIKELY A SCAM"
	}
	var header strings.Builder
	fmt.Fprintf(&header, "*%s* on *%s*\n`%s`\n\n", res.Symbol, res.Chain, res.Address)
	fmt.Fprintf(&header, "Verdict: *%s*", verdict)
	if res.Probability != nil {
		fmt.Fprintf(&header, " (%.1f%% confidence)", *res.Probability)
	}
	c.reply(chatID, header.String()+"\n\n"+res.Report)
}

func (c *Controller) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, coingecko.ErrTokenNotFound):
		c.reply(chatID, "I could not find a token with that ticker. Check the spelling and /start again.")
	case errors.Is(err, coingecko.ErrNoContractAddress):
		c.reply(chatID, "That token has no contract address listed, so there is nothing to inspect.")
	case retry.IsTransient(err):
		c.reply(chatID, "The upstream data services are not responding right now. Please try again later.")
	default:
		telemetry.Errorf("[telegram] inspection failed: %v", err)
		c.reply(chatID, "Something went wrong on my side. Please try again.")
	}
}

func shortAddress(hex string) string {
	if len(hex) <= 10 {
		return hex
	}
	return hex[:10] + "…"
}
