// Package explain carries optional instrumentation through the search
// pipeline. Grep and reduce report file counts, candidate counts and phase
// timings to it; callers pass nil when they do not care.
package explain

type Explain interface {
	KV(key string, value any)
	Timer(name string) func()
}
