package updater

import (
	"sync"

	"github.com/go-errors/errors"
)

var ErrClientCancelled = errors.New("updater client was cancelled")

type MessageType string

const (
	MessageUpdaterMsg     MessageType = "updater-msg"
	MessageReadyToInstall MessageType = "ready-to-install"
)

// Message is the wire form of a session notification.
type Message struct {
	Type     MessageType `json:"type"`
	Status   Status      `json:"status,omitempty"`
	Progress string      `json:"progress,omitempty"`
}

// Client is a Session delivering its notifications through the Messages
// channel. Pushes never block, the backlog is kept in order until read.
type Client struct {
	Messages    <-chan *Message
	Id          uint32
	messages    chan *Message
	cancelChan  chan struct{}
	cancelOnce  sync.Once
	wake        chan struct{}
	queueMtx    sync.Mutex
	queue       []*Message
	coordinator *Coordinator
}

var _ Session = (*Client)(nil)

func newClient(coordinator *Coordinator) *Client {
	messages := make(chan *Message)

	client := &Client{
		Messages:    messages,
		messages:    messages,
		cancelChan:  make(chan struct{}),
		wake:        make(chan struct{}, 1),
		coordinator: coordinator,
	}

	go client.pump()

	return client
}

func (c *Client) NotifyReadyToInstall() error {
	return c.enqueue(&Message{Type: MessageReadyToInstall})
}

func (c *Client) NotifyUpdaterMsgPush(event UpdateEvent) error {
	return c.enqueue(&Message{
		Type:     MessageUpdaterMsg,
		Status:   event.Status,
		Progress: event.Progress,
	})
}

// Cancel deregisters the client and closes Messages.
func (c *Client) Cancel() {
	c.cancelOnce.Do(func() {
		c.coordinator.DeregisterClient(c)
		close(c.cancelChan)
	})
}

func (c *Client) enqueue(msg *Message) error {
	select {
	case <-c.cancelChan:
		return ErrClientCancelled
	default:
	}

	c.queueMtx.Lock()
	c.queue = append(c.queue, msg)
	c.queueMtx.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}

	return nil
}

func (c *Client) pump() {
	defer close(c.messages)

	for {
		c.queueMtx.Lock()
		if len(c.queue) == 0 {
			c.queueMtx.Unlock()

			select {
			case <-c.wake:
				continue
			case <-c.cancelChan:
				return
			}
		}

		msg := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.queueMtx.Unlock()

		select {
		case c.messages <- msg:
		case <-c.cancelChan:
			return
		}
	}
}
