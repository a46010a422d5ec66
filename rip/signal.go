// Copyright (c) 2026 The Rip Rip Hooray! Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of riprip.
//
// riprip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// riprip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with riprip.  If not, see <https://www.gnu.org/licenses/>.

package rip

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// cancelFlag is the sole concurrent actor in the rip loop (spec §5): the
// OS delivers SIGINT on its own goroutine, which does nothing but store
// true. Every other goroutine only ever loads it, at sector and pass
// boundaries, never from inside the signal handler itself.
type cancelFlag struct {
	flag   atomic.Bool
	ch     chan os.Signal
	notify func(chan<- os.Signal, ...os.Signal)
	stop   func(chan<- os.Signal)
}

func newCancelFlag() *cancelFlag {
	c := &cancelFlag{
		ch:     make(chan os.Signal, 1),
		notify: signal.Notify,
		stop:   signal.Stop,
	}
	c.notify(c.ch, os.Interrupt)
	go func() {
		if _, ok := <-c.ch; ok {
			c.flag.Store(true)
		}
	}()
	return c
}

// cancelled reports whether SIGINT has been observed. Call at every
// sector read and pass boundary (spec §4.8).
func (c *cancelFlag) cancelled() bool { return c.flag.Load() }

// close stops receiving SIGINT and lets the listener goroutine exit.
func (c *cancelFlag) close() {
	c.stop(c.ch)
	close(c.ch)
}
