package frontend

import "time"

// MessageService shows messages to the user of a frontend.
type MessageService interface {
	Info(message string, timeout time.Duration) error
	Warn(message string, timeout time.Duration) error
	// Prompt blocks until the user picked one of actions and returns it.
	// An empty string means the prompt was dismissed.
	Prompt(message string, actions ...string) (string, error)
}

// LogMessageService writes messages to a logger. Prompts are dismissed.
type LogMessageService struct {
	Logger Logger
}

var _ MessageService = (*LogMessageService)(nil)

func (l *LogMessageService) Info(message string, timeout time.Duration) error {
	l.logger().Infof("%s", message)
	return nil
}

func (l *LogMessageService) Warn(message string, timeout time.Duration) error {
	l.logger().Warnf("%s", message)
	return nil
}

func (l *LogMessageService) Prompt(message string, actions ...string) (string, error) {
	l.logger().Infof("%s %v", message, actions)
	return "", nil
}

func (l *LogMessageService) logger() Logger {
	if l.Logger == nil {
		return noopLogger{}
	}

	return l.Logger
}
