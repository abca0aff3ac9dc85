// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import "time"

const (
	// fixedHarvestPeriod is the period fixed-period data (metrics,
	// traces, span events, custom events) is sent to the collector.
	fixedHarvestPeriod = 60 * time.Second
	// collectorTimeout bounds a single collector round trip.
	collectorTimeout = 20 * time.Second

	attributeKeyLengthLimit   = 255
	attributeValueLengthLimit = 255
	attributeUserLimit        = 64
	attributeErrorLimit       = 32
	customEventAttributeLimit = 64
)
