package version

// Version is overridable at build time:
//
//	go build -ldflags "-X github.com/CoolSpy3/asm-code-lens/internal/version.Version=v1.2.3"
var Version = "dev"

func String() string {
	return Version
}
