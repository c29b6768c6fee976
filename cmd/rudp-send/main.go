// Command rudp-send sends a block of generated data to a rudp-recv
// peer and reports throughput and retry statistics on completion. It
// is the throughput-benchmark counterpart of the original RUDP
// sender/receiver driver pair, rebuilt against the rudp package's
// typed API instead of directly managing sockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/therealutkarshpriyadarshi/rudp"
	"github.com/therealutkarshpriyadarshi/rudp/rudplog"
	"github.com/therealutkarshpriyadarshi/rudp/rudpmetrics"
)

var (
	addr    = flag.String("addr", "127.0.0.1", "receiver address")
	port    = flag.Int("port", 9000, "receiver port")
	size    = flag.Int("size", 2_000_000, "number of bytes to send")
	verbose = flag.Bool("v", false, "log every retry and segment")
)

func main() {
	flag.Parse()

	var logger rudplog.Logger = rudplog.Nop()
	if *verbose {
		logger = rudplog.NewStdLogger(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds))
	}
	metrics := &rudpmetrics.Endpoint{}

	cfg := rudp.DefaultConfig()
	cfg.Logger = logger
	cfg.Metrics = metrics

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sender, err := rudp.OpenSender(ctx, *addr, uint16(*port), cfg)
	if err != nil {
		log.Fatalf("open sender: %v", err)
	}

	payload := make([]byte, *size)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range payload {
		payload[i] = byte(rng.Uint32())
	}

	start := time.Now()
	n, err := sender.Send(payload)
	elapsed := time.Since(start)
	if err != nil {
		log.Fatalf("send: %v (sent %d/%d bytes)", err, n, len(payload))
	}

	if err := sender.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}

	throughput := float64(n) / elapsed.Seconds() / (1 << 20)
	fmt.Printf("sent %d bytes in %s (%.2f MiB/s)\n", n, elapsed, throughput)
	fmt.Printf("stats: %s\n", metrics.Snapshot())
}
