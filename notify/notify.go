package notify

import (
	"strconv"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsIface = "org.freedesktop.Notifications"

	urgencyLow    byte = 0
	urgencyNormal byte = 1
)

type Config struct {
	AppName string
	Logger  Logger
}

// Notifier shows studio messages as desktop notifications.
type Notifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	appName string
	log     Logger

	done      chan struct{}
	closeOnce sync.Once
}

func New(config *Config) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Errorf("could not connect to session bus: %v", err)
	}

	n := &Notifier{
		conn:    conn,
		obj:     conn.Object(notificationsDest, notificationsPath),
		appName: config.AppName,
		done:    make(chan struct{}),
	}

	if config.Logger != nil {
		n.log = config.Logger
	} else {
		n.log = noopLogger{}
	}

	if n.appName == "" {
		n.appName = "Studio"
	}

	if err := n.obj.Call("org.freedesktop.DBus.Peer.Ping", 0).Store(); err != nil {
		_ = conn.Close()
		return nil, errors.Errorf("no notification service available: %v", err)
	}

	return n, nil
}

func (n *Notifier) Info(message string, timeout time.Duration) error {
	_, err := n.notify("dialog-information", message, urgencyLow, nil, timeout)
	return err
}

func (n *Notifier) Warn(message string, timeout time.Duration) error {
	_, err := n.notify("dialog-warning", message, urgencyNormal, nil, timeout)
	return err
}

// Prompt shows a notification with one button per action and waits for the
// user to pick one. Closing the notification dismisses the prompt.
func (n *Notifier) Prompt(message string, actions ...string) (string, error) {
	signalChan := make(chan *dbus.Signal, 16)
	n.conn.Signal(signalChan)

	defer func() {
		n.conn.RemoveSignal(signalChan)

		_ = n.conn.BusObject().RemoveMatchSignal(notificationsIface, "ActionInvoked").Err
		_ = n.conn.BusObject().RemoveMatchSignal(notificationsIface, "NotificationClosed").Err
	}()

	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		call := n.conn.BusObject().AddMatchSignal(notificationsIface, member)
		if call.Err != nil {
			return "", errors.Errorf("could not subscribe to %v: %v", member, call.Err)
		}
	}

	id, err := n.notify("dialog-question", message, urgencyNormal, actionKeys(actions), 0)
	if err != nil {
		return "", err
	}

	for {
		select {
		case signal := <-signalChan:
			if answer, ok := promptAnswer(signal, id, actions); ok {
				return answer, nil
			}
		case <-n.done:
			return "", nil
		}
	}
}

func (n *Notifier) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)
	})

	return n.conn.Close()
}

func (n *Notifier) notify(icon string, message string, urgency byte, actions []string, timeout time.Duration) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency),
	}

	if actions == nil {
		actions = []string{}
	}

	var id uint32

	err := n.obj.Call(notificationsIface+".Notify", 0,
		n.appName, uint32(0), icon, n.appName, message, actions, hints, int32(timeout.Milliseconds()),
	).Store(&id)
	if err != nil {
		return 0, errors.Errorf("could not show notification: %v", err)
	}

	n.log.Debugf("Showed notification %d: %v", id, message)

	return id, nil
}

// actionKeys pairs every action with its index as key, as Notify expects
// its actions argument.
func actionKeys(actions []string) []string {
	keys := make([]string, 0, 2*len(actions))

	for i, action := range actions {
		keys = append(keys, strconv.Itoa(i), action)
	}

	return keys
}

// promptAnswer reports whether signal finishes the prompt notification id,
// and which action was picked.
func promptAnswer(signal *dbus.Signal, id uint32, actions []string) (string, bool) {
	if signal == nil || len(signal.Body) < 2 {
		return "", false
	}

	signalId, ok := signal.Body[0].(uint32)
	if !ok || signalId != id {
		return "", false
	}

	switch signal.Name {
	case notificationsIface + ".ActionInvoked":
		key, _ := signal.Body[1].(string)

		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(actions) {
			return "", true
		}

		return actions[i], true

	case notificationsIface + ".NotificationClosed":
		return "", true
	}

	return "", false
}
