package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ivlev/chart2video/internal/system"
)

func main() {
	// Поднимаем лимит дескрипторов: ffmpeg-процессы и пайпы
	system.InitResourceLimits()

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		}
		os.Exit(1)
	}
}
