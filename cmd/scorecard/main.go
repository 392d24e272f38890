package main

import (
	"github.com/miission/scorecard/pkg/cli"
)

func main() {
	cli.Execute()
}
