package app

import (
	"github.com/adanyl0v/go-task-tracker/internal/config"
	"github.com/adanyl0v/go-task-tracker/internal/events"
)

// newBroadcaster registers every listener for the lifetime of the process.
func newBroadcaster() *events.Broadcaster {
	listeners := []events.Listener{
		events.NewLogListener(componentLogger("high_priority_tasks")),
	}

	smtpCfg := config.Global().SMTP
	if smtpCfg.Enabled() {
		sender := events.NewSMTPSender(smtpCfg.Host, smtpCfg.Port, smtpCfg.Username, smtpCfg.Password, smtpCfg.Timeout)
		listeners = append(listeners, events.NewMailListener(sender, smtpCfg.Sender, smtpCfg.Recipient))
		globalLogger.Info().
			Str("smtp_host", smtpCfg.Host).
			Str("recipient", smtpCfg.Recipient).
			Msg("enabled high priority mail notifications")
	}

	return events.NewBroadcaster(componentLogger("events"), listeners...)
}
