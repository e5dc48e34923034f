package main

import "github.com/forPelevin/redub/internal/cli"

func main() { cli.Main() }
