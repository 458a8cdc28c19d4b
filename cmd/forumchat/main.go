package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/forumchat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "forumchat:", err)
		os.Exit(1)
	}
}
