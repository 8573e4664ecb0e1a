// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

package network

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is the host's date/time utility collaborator (§6). The engine
// never computes calendar arithmetic itself; it asks Clock to decode a
// day-number/day-fraction pair into a weekday, month, or formatted
// string, and to parse literal date/time tokens during rule
// compilation.
type Clock interface {
	// Day returns the day of week for date, 1=Sunday .. 7=Saturday.
	Day(date float64) int
	// Month returns the calendar month for date, 1..12.
	Month(date float64) int
	// ParseClockTime parses an "HH:MM:SS" literal into a day fraction in [0,1).
	ParseClockTime(s string) (float64, error)
	// ParseDate parses a date literal into a day number.
	ParseDate(s string) (float64, error)
}

// epoch is day 0 under the default clock: the SWMM/Excel date-serial
// convention used by the original rule-controls module.
var epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DefaultClock is a stock calendar implementation good enough to drive
// the engine end to end; a host with its own project calendar can
// supply a different Clock.
type DefaultClock struct{}

func (DefaultClock) Day(date float64) int {
	t := epoch.AddDate(0, 0, int(date))
	// time.Weekday is 0=Sunday..6=Saturday; spec wants 1=Sunday..7=Saturday.
	return int(t.Weekday()) + 1
}

func (DefaultClock) Month(date float64) int {
	t := epoch.AddDate(0, 0, int(date))
	return int(t.Month())
}

func (DefaultClock) ParseClockTime(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("network: malformed time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("network: malformed time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("network: malformed time %q: %w", s, err)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, fmt.Errorf("network: malformed time %q: %w", s, err)
		}
	}
	total := float64(h*3600+m*60+sec) / 86400.0
	return total, nil
}

func (DefaultClock) ParseDate(s string) (float64, error) {
	for _, layout := range []string{"01/02/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.Sub(epoch).Hours() / 24), nil
		}
	}
	return 0, fmt.Errorf("network: malformed date %q", s)
}
