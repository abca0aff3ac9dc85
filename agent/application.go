// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"sync"
	"time"

	"github.com/tracehouse/apm-agent-core/internal"
)

// Application is the shared, long-lived object transactions are
// started from. All methods are nil-safe so a nil *Application can be
// used as a mock (spec §5: "the application object ... is shared
// across transactions").
type Application struct {
	config Config
	log    Logger

	mu    sync.Mutex
	reply *internal.ConnectReply

	harvest *Harvest
}

// NewApplication builds an Application by applying opts over the
// default configuration, in order (spec §1.1, grounded on the
// teacher's NewApplication).
func NewApplication(opts ...ConfigOption) (*Application, error) {
	c := defaultConfig()
	for _, fn := range opts {
		if fn != nil {
			fn(&c)
			if c.Error != nil {
				return nil, c.Error
			}
		}
	}
	reply := internal.ConnectReplyDefaults()
	reply.ApdexThresholdSeconds = c.ApdexT.Seconds()

	maxCustomEvents := internal.DefaultCustomEventLimit
	if c.CustomInsightsEvents.MaxSamplesStored > 0 {
		maxCustomEvents = c.CustomInsightsEvents.MaxSamplesStored
	}
	return &Application{
		config:  c,
		log:     c.Logger,
		reply:   reply,
		harvest: newHarvest(maxCustomEvents, internal.DefaultMaxSpanEvents),
	}, nil
}

// Harvest returns the accumulated, not-yet-reported data, resetting
// the application's harvest for the next cycle. A Sender (such as
// collector.Client) consumes the result (spec §6.6).
func (app *Application) Harvest() *Harvest {
	if app == nil {
		return nil
	}
	return app.harvest.Swap()
}

// Config returns a copy of the application's configuration.
func (app *Application) Config() Config {
	if app == nil {
		return defaultConfig()
	}
	return app.config
}

// SetConnectReply replaces the security-policy and rules state a new
// transaction joins against at begin (spec §4.1); it is the
// application-level equivalent of the collector's connect response.
func (app *Application) SetConnectReply(reply *internal.ConnectReply) {
	if app == nil || reply == nil {
		return
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.reply = reply
}

func (app *Application) connectReply() *internal.ConnectReply {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.reply
}

// StartTransaction begins a Transaction with the given name (spec
// §4.1's begin). background selects the OtherTransaction naming
// branch instead of WebTransaction.
func (app *Application) StartTransaction(name string, background bool) *Transaction {
	if app == nil {
		return nil
	}
	return app.startTransactionAt(name, background, time.Now())
}

func (app *Application) startTransactionAt(name string, background bool, now time.Time) *Transaction {
	opts := app.config.toOptions()
	reply := app.connectReply()

	txn := internal.BeginTxn(opts, reply, background, now)
	if txn == nil {
		return nil
	}
	txn.SetName(name, name, internal.PathCustom, true)

	return &Transaction{app: app, txn: txn}
}
