// Command chatdump tails a live chat and prints each normalized item as
// one JSON line on stdout. Handy for protocol debugging and piping into
// jq.
//
// Usage:
//
//	chatdump -handle somechannel
//	chatdump -channel UCxxxx
//	chatdump -live dQw4w9WgXcQ -trace payloads.ndjson
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onnwee/chattail/chat"
	"github.com/onnwee/chattail/innertube"
	"github.com/onnwee/chattail/session"
)

func main() {
	handle := flag.String("handle", "", "channel handle (without @)")
	channel := flag.String("channel", "", "channel id (UC...)")
	live := flag.String("live", "", "live video id")
	interval := flag.Duration("interval", time.Second, "poll interval")
	traceFile := flag.String("trace", "", "append raw continuation payloads to this file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *handle == "" && *channel == "" && *live == "" {
		fmt.Fprintln(os.Stderr, "one of -handle, -channel, -live is required")
		flag.Usage()
		os.Exit(2)
	}

	opts := session.Options{
		Target: innertube.Target{
			Handle:    *handle,
			ChannelID: *channel,
			LiveID:    *live,
		},
		PollInterval: *interval,
	}
	if *traceFile != "" {
		trace := session.NewTraceSink(*traceFile)
		defer trace.Close()
		opts.Trace = trace
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	exitCode := 0

	sess := session.New(&innertube.Client{}, opts)
	sess.OnItem(func(item chat.ChatItem) {
		out := map[string]any{
			"id":      item.ID,
			"kind":    item.Kind(),
			"author":  item.Author.Name,
			"message": item.PlainText(),
			"ts":      item.Timestamp,
		}
		if item.Superchat != nil {
			out["amount"] = item.Superchat.Amount
			out["currency"] = item.Superchat.Currency
		}
		if item.Membership != nil {
			out["event_type"] = item.Membership.EventType.String()
		}
		_ = enc.Encode(out)
	})
	sess.OnError(func(err error) {
		fmt.Fprintln(os.Stderr, "error:", err)
		exitCode = 1
	})
	sess.OnStop(func(reason string) {
		fmt.Fprintln(os.Stderr, "stopped:", reason)
	})

	sess.Start(ctx, false)
	sess.Wait()
	if sess.State() == session.StateFaulted {
		exitCode = 1
	}
	os.Exit(exitCode)
}
