package main

import (
	"runtime"

	"photodedupe/cmd"
	"photodedupe/signalhandler"
)

func main() {
	runtime.GOMAXPROCS(signalhandler.OptimalProcs())
	cmd.Execute()
}
