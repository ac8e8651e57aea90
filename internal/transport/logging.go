// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "soundstrip/internal/log"
)

// LoggingTransport writes each message to the application log at debug
// level. It backs the diagnostics stream when no network transport is
// configured.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs data as JSON, or with %+v when it does not marshal.
func (lt *LoggingTransport) Send(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		applog.Debugf("LoggingTransport: %T %+v", data, data)
		return nil
	}
	applog.Debugf("LoggingTransport: %s", b)
	return nil
}

func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
