package main

import (
	"fmt"
	"runtime"
)

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("rpsvision %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
