package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/CoolSpy3/asm-code-lens/internal/lensd"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:5367", "listen address (tcp)")
	flag.Parse()

	s := lensd.NewServer(lensd.Options{Listen: *listen})
	if err := s.Run(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			_, _ = fmt.Fprintf(os.Stderr, "listen address in use: %s\nTry: -listen 127.0.0.1:5368\n", *listen)
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
