// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/veato/models"
	"github.com/danielhkuo/veato/pollsync"
)

// Command names
const (
	cmdSelect  = "select"
	cmdVeto    = "veto"
	cmdLock    = "lock"
	cmdBallot  = "ballot"
	cmdDismiss = "dismiss"
	cmdHelp    = "help"
	cmdQuit    = "quit"
)

const usage = `commands:
  select <name>   toggle a candidate
  veto <n>        veto candidate number n (phase 1, once per poll)
  lock            lock in your ballot
  ballot          send the selection as a simple ballot
  dismiss         clear banners and errors
  quit            leave the poll`

var errHelp = errors.New(usage)

type command struct {
	name string
	arg  string
	// index is zero-based; users type the one-based number shown on screen
	index int
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errHelp
	}

	cmd := command{name: strings.ToLower(fields[0])}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd.name {
	case cmdSelect:
		if rest == "" {
			return command{}, errors.New("usage: select <name>")
		}
		cmd.arg = rest
	case cmdVeto:
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return command{}, errors.New("usage: veto <n>")
		}
		cmd.index = n - 1
	case cmdLock, cmdBallot, cmdDismiss, cmdQuit:
	case cmdHelp:
		return command{}, errHelp
	default:
		return command{}, fmt.Errorf("unknown command %q\n%s", cmd.name, usage)
	}
	return cmd, nil
}

func (c command) apply(ctx context.Context, vm *pollsync.ViewModel) error {
	switch c.name {
	case cmdSelect:
		return vm.ToggleSelection(c.arg)
	case cmdVeto:
		return vm.SetRejectedCandidate(ctx, c.index)
	case cmdLock:
		if vm.State().Phase() == models.Phase2 {
			return vm.SubmitPhase2Vote(ctx)
		}
		return vm.SubmitPhase1Vote(ctx)
	case cmdBallot:
		return vm.SendBallot(ctx)
	case cmdDismiss:
		vm.DismissVetoBanner()
		vm.ClearVetoError()
		vm.ClearSubmissionError()
		vm.AcknowledgeReview()
	}
	return nil
}
