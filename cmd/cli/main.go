package main

import (
	"github.com/mchmarny/vinecop/pkg/cli"
)

func main() {
	cli.Execute()
}
