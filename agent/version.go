// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

// Version is the agent's release version, sent to the collector as
// part of the connect handshake.
const Version = "0.1.0"
