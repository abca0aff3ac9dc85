// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityPoliciesJoinNeverUpgrades(t *testing.T) {
	opts := Options{RecordSQL: RecordSQLObfuscated}
	sp := SecurityPolicies{
		RecordSQL: tribool{Enabled: true, SetByUser: true},
	}
	sp.Join(&opts)
	assert.Equal(t, RecordSQLObfuscated, opts.RecordSQL, "an enabled policy must never upgrade a less permissive local setting")
}

func TestSecurityPoliciesJoinDowngradesRawToObfuscated(t *testing.T) {
	opts := Options{RecordSQL: RecordSQLRaw}
	sp := SecurityPolicies{
		RecordSQL: tribool{Enabled: true, SetByUser: true},
	}
	sp.Join(&opts)
	assert.Equal(t, RecordSQLObfuscated, opts.RecordSQL)
}

func TestSecurityPoliciesJoinDisabledForcesOff(t *testing.T) {
	opts := Options{RecordSQL: RecordSQLRaw}
	sp := SecurityPolicies{
		RecordSQL: tribool{Enabled: false, SetByUser: true},
	}
	sp.Join(&opts)
	assert.Equal(t, RecordSQLOff, opts.RecordSQL)
}

func TestSecurityPoliciesJoinUnsetLeavesLocalUntouched(t *testing.T) {
	opts := Options{RecordSQL: RecordSQLRaw, CustomEventsEnabled: true}
	sp := SecurityPolicies{} // nothing SetByUser
	sp.Join(&opts)
	assert.Equal(t, RecordSQLRaw, opts.RecordSQL)
	assert.True(t, opts.CustomEventsEnabled)
}

func TestSecurityPoliciesJoinCollectTracesDisablesWholeGroup(t *testing.T) {
	opts := Options{TTEnabled: true, ExplainPlanEnabled: true, SlowSQLEnabled: true}
	sp := SecurityPolicies{
		CollectTraces: tribool{Enabled: false, SetByUser: true},
	}
	sp.Join(&opts)
	assert.False(t, opts.TTEnabled)
	assert.False(t, opts.ExplainPlanEnabled)
	assert.False(t, opts.SlowSQLEnabled)
}

func TestConnectReplyDefaultsAreUsable(t *testing.T) {
	reply := ConnectReplyDefaults()
	assert.NotNil(t, reply.TraceIDGenerator)
	assert.NotNil(t, reply.KeyTxnApdex)
	assert.Equal(t, "1", reply.TrustedAccountKey)
}
