// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sysinfo gathers host-identifying information used by
// datastore instance metrics (spec §4.6.1 step 7): a "localhost"
// instance host is rewritten to the real system hostname so that
// per-host rollups aren't all collapsed onto the literal string
// "localhost".
package sysinfo

import (
	"os"
	"strings"
	"sync"
)

var cached struct {
	sync.Mutex
	name string
	done bool
}

func getDynoName(getenv func(string) string, useDynoNames bool, dynoNamePrefixesToShorten []string) string {
	if !useDynoNames {
		return ""
	}
	dyno := getenv("DYNO")
	if dyno == "" {
		return dyno
	}
	for _, prefix := range dynoNamePrefixesToShorten {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(dyno, prefix) {
			return prefix + ".*"
		}
	}
	return dyno
}

// Hostname returns the host name, optionally shortened to a Heroku
// dyno-type name.
func Hostname(useDynoNames bool, dynoNamePrefixesToShorten []string) (string, error) {
	if dyno := getDynoName(os.Getenv, useDynoNames, dynoNamePrefixesToShorten); dyno != "" {
		return dyno, nil
	}

	cached.Lock()
	defer cached.Unlock()
	if cached.done {
		return cached.name, nil
	}
	name, err := os.Hostname()
	if err != nil {
		return "", err
	}
	cached.name = name
	cached.done = true
	return name, nil
}

// ResetHostname clears the cached hostname value. Only used for
// testing.
func ResetHostname() {
	cached.Lock()
	defer cached.Unlock()
	cached.done = false
	cached.name = ""
}
