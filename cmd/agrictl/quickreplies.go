package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

type QuickRepliesCommand struct {
	ServerFlags
}

func (c QuickRepliesCommand) Run(ctx context.Context) error {
	replies, err := c.client().QuickReplies(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tQUESTION")
	for _, r := range replies {
		fmt.Fprintf(tw, "%s\t%s\n", r.Category, r.Text)
	}
	return tw.Flush()
}
