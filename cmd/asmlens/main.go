package main

import (
	"os"

	"github.com/CoolSpy3/asm-code-lens/internal/lenscli"
)

func main() {
	cmd := lenscli.NewRootCommand()
	cmd.SetArgs(lenscli.RewriteArgsForImplicitRefs(cmd, os.Args[1:]))
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
