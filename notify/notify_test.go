package notify

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestActionKeys(t *testing.T) {
	assert.Equal(t, []string{"0", "Yes", "1", "Later"}, actionKeys([]string{"Yes", "Later"}))
	assert.Empty(t, actionKeys(nil))
}

func TestPromptAnswer(t *testing.T) {
	actions := []string{"Yes", "Later"}

	tests := []struct {
		name     string
		signal   *dbus.Signal
		answer   string
		finished bool
	}{
		{
			name:     "action invoked",
			signal:   &dbus.Signal{Name: notificationsIface + ".ActionInvoked", Body: []interface{}{uint32(7), "1"}},
			answer:   "Later",
			finished: true,
		},
		{
			name:     "closed",
			signal:   &dbus.Signal{Name: notificationsIface + ".NotificationClosed", Body: []interface{}{uint32(7), uint32(2)}},
			finished: true,
		},
		{
			name:   "other notification",
			signal: &dbus.Signal{Name: notificationsIface + ".ActionInvoked", Body: []interface{}{uint32(8), "0"}},
		},
		{
			name:     "unknown action",
			signal:   &dbus.Signal{Name: notificationsIface + ".ActionInvoked", Body: []interface{}{uint32(7), "default"}},
			finished: true,
		},
		{
			name:   "unrelated signal",
			signal: &dbus.Signal{Name: "org.freedesktop.DBus.NameAcquired", Body: []interface{}{"name"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, finished := promptAnswer(tt.signal, 7, actions)
			assert.Equal(t, tt.answer, answer)
			assert.Equal(t, tt.finished, finished)
		})
	}
}
