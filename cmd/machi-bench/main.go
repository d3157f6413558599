// Command machi-bench runs a bounded-duration soak test against a machi
// store: concurrent appenders, readers and trimmers hammering the same
// store, with per-operation latency percentiles reported at the end.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	flag "github.com/spf13/pflag"

	"github.com/iamNilotpal/machi/pkg/machi"
	"github.com/iamNilotpal/machi/pkg/options"
)

type locator struct {
	gen, offset, length uint64
}

type config struct {
	dir         string
	maxLen      int
	payloadSize int
	writers     int
	readers     int
	duration    time.Duration
}

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.dir, "dir", "", "store directory (default: a fresh temp directory)")
	flag.IntVar(&cfg.maxLen, "maxlen", 1024, "rotation watermark in live entries")
	flag.IntVar(&cfg.payloadSize, "payload-size", 256, "payload size in bytes for generated appends")
	flag.IntVar(&cfg.writers, "writers", 2, "number of concurrent appender goroutines")
	flag.IntVar(&cfg.readers, "readers", 4, "number of concurrent reader goroutines")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "how long to run the soak test")
	flag.Parse()

	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.dir == "" {
		dir, err := os.MkdirTemp("", "machi-bench-")
		if err != nil {
			fmt.Fprintln(os.Stderr, "machi-bench: failed to create temp directory:", err)
			os.Exit(1)
		}
		defer os.RemoveAll(dir)
		cfg.dir = dir
	}

	store, err := machi.Open("machi-bench", options.WithDir(cfg.dir), options.WithMaxLen(cfg.maxLen))
	if err != nil {
		fmt.Fprintln(os.Stderr, "machi-bench: failed to open store:", err)
		os.Exit(1)
	}
	defer store.Close()

	run(store, cfg)
}

func run(store *machi.Store, cfg config) {
	stop := make(chan struct{})
	time.AfterFunc(cfg.duration, func() { close(stop) })

	var mu sync.Mutex
	var locators []locator

	appendHist := hdrhistogram.New(1, 10_000_000, 3)
	getHist := hdrhistogram.New(1, 10_000_000, 3)
	trimHist := hdrhistogram.New(1, 10_000_000, 3)
	var histMu sync.Mutex

	var appends, gets, trims int64

	var wg sync.WaitGroup
	for i := 0; i < cfg.writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := make([]byte, cfg.payloadSize)
			for {
				select {
				case <-stop:
					return
				default:
				}

				start := time.Now()
				gen, offset, length, err := store.Append(payload)
				recordLatency(&histMu, appendHist, time.Since(start))
				if err != nil {
					continue
				}
				atomic.AddInt64(&appends, 1)

				mu.Lock()
				locators = append(locators, locator{gen, offset, length})
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < cfg.readers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}

				mu.Lock()
				n := len(locators)
				var loc locator
				if n > 0 {
					loc = locators[rnd.Intn(n)]
				}
				mu.Unlock()
				if n == 0 {
					continue
				}

				start := time.Now()
				_, err := store.Get(loc.gen, loc.offset, loc.length)
				recordLatency(&histMu, getHist, time.Since(start))
				if err == nil {
					atomic.AddInt64(&gets, 1)
				}

				if rnd.Intn(10) == 0 {
					start = time.Now()
					err := store.Trim(loc.gen, loc.offset, loc.length)
					recordLatency(&histMu, trimHist, time.Since(start))
					if err == nil {
						atomic.AddInt64(&trims, 1)
					}
				}
			}
		}(int64(i) + 1)
	}

	wg.Wait()

	report("append", appendHist, atomic.LoadInt64(&appends), cfg.duration)
	report("get", getHist, atomic.LoadInt64(&gets), cfg.duration)
	report("trim", trimHist, atomic.LoadInt64(&trims), cfg.duration)
}

func recordLatency(mu *sync.Mutex, h *hdrhistogram.Histogram, d time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	h.RecordValue(d.Microseconds())
}

func report(op string, h *hdrhistogram.Histogram, count int64, d time.Duration) {
	fmt.Printf(
		"%-8s count=%-10d throughput=%.1f/s p50=%dus p90=%dus p99=%dus max=%dus\n",
		op, count, float64(count)/d.Seconds(),
		h.ValueAtQuantile(50), h.ValueAtQuantile(90), h.ValueAtQuantile(99), h.Max(),
	)
}
