// Package notify delivers best-effort chat notifications (vote milestones,
// new features) without ever touching the request path: handlers enqueue and
// return, a single worker drains the queue, failures are logged and dropped.
package notify

import (
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is the side-channel handlers depend on.
type Notifier interface {
	Notify(message string)
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(message string) error
}

// Dispatcher fans messages from a bounded queue to a Sender on one worker
// goroutine. Notify never blocks; when the queue is full the message is
// dropped (the channel is best-effort by contract).
type Dispatcher struct {
	queue   chan string
	sender  Sender
	wg      sync.WaitGroup
	closing sync.Once
}

func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		queue:  make(chan string, queueSize),
		sender: sender,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		if d.sender == nil {
			continue
		}
		if err := d.sender.Send(msg); err != nil {
			slog.Warn("notification delivery failed", "error", err)
		}
	}
}

// Notify enqueues a message. Safe to call from any goroutine.
func (d *Dispatcher) Notify(message string) {
	select {
	case d.queue <- message:
	default:
		slog.Warn("notification queue full, dropping message")
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	d.closing.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// TelegramSender posts messages to a fixed chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender dials the bot API. Returns nil, nil when token is empty
// so callers can wire a no-op dispatcher.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (t *TelegramSender) Send(message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	_, err := t.bot.Send(msg)
	return err
}
