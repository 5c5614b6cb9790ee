package main

import (
	"github.com/ColonelBlimp/dtmfscope/cmd"
	"github.com/ColonelBlimp/dtmfscope/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
