package telemetry

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Async leveled logger. Producers enqueue formatted entries on a buffered
// channel; a single consumer writes them to stdout and keeps a bounded ring
// of recent lines so the bot can serve /tail without re-reading anything.

var (
	enableDebug atomic.Bool

	logCh chan entry
	once  sync.Once

	ringMu      sync.Mutex
	ring        []entry
	ringNext    int
	ringSize    = 2000
	ringWrapped bool
)

type entry struct {
	at      time.Time
	level   string
	message string
}

func Start() {
	once.Do(func() {
		logCh = make(chan entry, 8192)
		ring = make([]entry, ringSize)

		go func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(os.Stderr, "telemetry panic: %v\n", r)
				}
			}()

			for e := range logCh {
				ringMu.Lock()
				ring[ringNext] = e
				ringNext = (ringNext + 1) % ringSize
				if ringNext == 0 {
					ringWrapped = true
				}
				ringMu.Unlock()

				fmt.Printf("%s [%s] %s\n",
					e.at.Format("2006/01/02 15:04:05.000"), e.level, e.message)
			}
		}()
	})
}

func Stop() {
	if logCh != nil {
		close(logCh)
	}
}

func EnableDebug(on bool) { enableDebug.Store(on) }
func DebugOn() bool       { return enableDebug.Load() }

// Non-blocking enqueue; drop if saturated.
func enqueue(level, message string) {
	e := entry{at: time.Now(), level: level, message: message}
	select {
	case logCh <- e:
	default:
		fmt.Fprintf(os.Stderr, "telemetry: buffer full, dropping log: %s\n", message)
	}
}

func Infof(format string, args ...any) {
	enqueue("INFO", fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	enqueue("WARN", fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	enqueue("ERROR", fmt.Sprintf(format, args...))
}

// DEBUG only formats when enabled.
func Debugf(format string, args ...any) {
	if !enableDebug.Load() {
		return
	}
	enqueue("DEBUG", fmt.Sprintf(format, args...))
}

// Tail returns up to n of the most recent log lines, oldest first.
func Tail(n int) []string {
	if n <= 0 {
		return nil
	}
	if n > ringSize {
		n = ringSize
	}
	ringMu.Lock()
	defer ringMu.Unlock()

	available := ringNext
	if ringWrapped {
		available = ringSize
	}
	if available == 0 {
		return nil
	}
	if n > available {
		n = available
	}

	out := make([]string, 0, n)
	start := (ringNext - n + ringSize) % ringSize
	for i := 0; i < n; i++ {
		e := ring[(start+i)%ringSize]
		if e.at.IsZero() {
			continue
		}
		out = append(out, fmt.Sprintf("%s [%s] %s",
			e.at.Format("15:04:05.000"), e.level, e.message))
	}
	return out
}
