package main

import (
	"os"

	"github.com/ngantchou/warap-ai-sub004/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
