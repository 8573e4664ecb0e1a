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

// Package ruleload reads the rule text syntax (spec.md §6) line by
// line and feeds each clause to the compiler, standing in for the
// host's tokenizer (explicitly out of scope per spec.md §1).
package ruleload

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/probechain/go-rulectl/internal/network"
	"github.com/probechain/go-rulectl/internal/rlog"
	"github.com/probechain/go-rulectl/internal/rules"
)

// Load scans r line by line, tokenizing on whitespace, and compiles the
// resulting clauses into a rule table. Blank lines and lines starting
// with ';' are skipped, matching the host's comment convention.
func Load(r io.Reader, resolver network.SymbolResolver, clock network.Clock, log rlog.Logger) ([]rules.Rule, error) {
	lines, err := readClauseLines(r)
	if err != nil {
		return nil, err
	}

	n := 0
	for _, tokens := range lines {
		if strings.EqualFold(tokens[0], "RULE") {
			n++
		}
	}

	c := rules.NewCompiler(n, resolver, clock, log)
	ruleIdx := -1
	for i, tokens := range lines {
		keyword := tokens[0]
		if strings.EqualFold(keyword, "RULE") {
			ruleIdx++
		}
		if ruleIdx < 0 {
			return nil, fmt.Errorf("ruleload: line %d: clause %q before any RULE", i+1, keyword)
		}
		if err := c.AddRuleClause(ruleIdx, keyword, tokens[1:]); err != nil {
			return nil, fmt.Errorf("ruleload: line %d: %w", i+1, err)
		}
	}
	return c.Rules(), nil
}

func readClauseLines(r io.Reader) ([][]string, error) {
	var lines [][]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		lines = append(lines, tokens)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ruleload: %w", err)
	}
	return lines, nil
}
