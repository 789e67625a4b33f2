/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/ombra/engine"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/testbed"
)

func main() {
	tb, err := testbed.NewTestGame()
	if err != nil {
		panic(err)
	}

	ombra, err := engine.New(tb.Game)
	if err != nil {
		panic(err)
	}

	if err := ombra.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// The quit event is processed by the main loop on the next frame, which
	// keeps shutdown off the signal goroutine.
	go func() {
		<-sigCh
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, core.EventContext{})
	}()

	// run engine
	if err := ombra.Run(); err != nil {
		panic(err)
	}

	if err := ombra.Shutdown(); err != nil {
		panic(err)
	}
}
