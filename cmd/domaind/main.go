// Package main runs the per-domain consistency runtime.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	domaincmd "github.com/latticeworks/dislocnet/internal/cmd/domaind"
	"github.com/latticeworks/dislocnet/internal/platform/config"
)

func main() {
	cfg, err := domaincmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[DOMAIND] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := domaincmd.Run(ctx, cfg); err != nil {
		log.Fatalf("run: %v", err)
	}
}
