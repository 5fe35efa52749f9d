package core

import (
	"context"

	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

const DebugUtilsExtensionName = "VK_EXT_debug_utils"

// DefaultDebugSeverity forwards verbose driver chatter alongside warnings and errors.
const DefaultDebugSeverity = driver.DebugSeverityVerbose | driver.DebugSeverityWarning | driver.DebugSeverityError

const allMessageTypes = driver.DebugMessageTypeGeneral | driver.DebugMessageTypeValidation | driver.DebugMessageTypePerformance

// DebugMessenger routes validation-layer messages into a structured logger for the
// lifetime of an Instance.
type DebugMessenger struct {
	handle driver.DebugMessenger
}

func debugMessengerInfo(severity driver.DebugSeverityFlags, logger *slog.Logger) driver.DebugMessengerCreateInfo {
	if severity == 0 {
		severity = DefaultDebugSeverity
	}
	return driver.DebugMessengerCreateInfo{
		Severity: severity,
		Types:    allMessageTypes,
		Callback: logDebugMessage(logging.OrDiscard(logger)),
	}
}

func newDebugMessenger(instance driver.Instance, severity driver.DebugSeverityFlags, logger *slog.Logger) (*DebugMessenger, error) {
	handle, err := instance.CreateDebugMessenger(debugMessengerInfo(severity, logger))
	if err != nil {
		return nil, CreationFailed(err, "create debug messenger")
	}
	return &DebugMessenger{handle: handle}, nil
}

func (m *DebugMessenger) Destroy() {
	if m == nil || m.handle == nil {
		return
	}
	m.handle.Destroy()
	m.handle = nil
}

func logDebugMessage(logger *slog.Logger) driver.DebugCallback {
	return func(msg driver.DebugMessage) bool {
		level := slog.LevelDebug
		switch {
		case msg.Severity&driver.DebugSeverityError != 0:
			level = slog.LevelError
		case msg.Severity&driver.DebugSeverityWarning != 0:
			level = slog.LevelWarn
		case msg.Severity&driver.DebugSeverityInfo != 0:
			level = slog.LevelInfo
		}

		logger.Log(context.Background(), level, msg.Message,
			slog.String("source", "validation"),
			slog.String("type", messageTypeName(msg.Type)),
			slog.String("id", msg.MessageIDName),
			slog.Int("idNumber", msg.MessageIDNumber),
		)
		return false
	}
}

func messageTypeName(t driver.DebugMessageTypeFlags) string {
	switch {
	case t&driver.DebugMessageTypeValidation != 0:
		return "validation"
	case t&driver.DebugMessageTypePerformance != 0:
		return "performance"
	}
	return "general"
}
