// Command rudp-recv waits for one rudp-send peer, receives its
// message, and reports the byte count and retry statistics. See
// rudp-send for the paired driver.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/therealutkarshpriyadarshi/rudp"
	"github.com/therealutkarshpriyadarshi/rudp/rudplog"
	"github.com/therealutkarshpriyadarshi/rudp/rudpmetrics"
)

var (
	port    = flag.Int("port", 9000, "port to listen on")
	maxSize = flag.Int("max-size", 64<<20, "largest message to accept")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	receiver, err := rudp.OpenReceiver(ctx, uint16(*port), cfg)
	if err != nil {
		log.Fatalf("open receiver: %v", err)
	}

	buf := make([]byte, *maxSize)

	start := time.Now()
	n, err := receiver.Recv(buf)
	elapsed := time.Since(start)
	if err != nil && !errors.Is(err, rudp.ErrPeerClosed) {
		log.Fatalf("recv: %v (got %d bytes)", err, n)
	}

	if err := receiver.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}

	throughput := float64(n) / elapsed.Seconds() / (1 << 20)
	fmt.Printf("received %d bytes in %s (%.2f MiB/s)\n", n, elapsed, throughput)
	fmt.Printf("stats: %s\n", metrics.Snapshot())
}
