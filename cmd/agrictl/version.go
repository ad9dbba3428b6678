package main

import (
	"context"
	"fmt"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(Version)
	return nil
}
