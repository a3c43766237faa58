package main

import "btc-price-monitor/internal/cli"

func main() {
	cli.Execute()
}
