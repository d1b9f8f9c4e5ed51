package cmd

import (
	"fmt"
	"runtime"
)

func printVersion() {
	fmt.Printf("aviary %s\n", AppVersion)
	fmt.Printf("  build time: %s\n", BuildTime)
	fmt.Printf("  git commit: %s\n", GitCommit)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
