package main

import "github.com/ordinalsplus/indexer-go/internal/cli"

func main() {
	cli.Execute()
}
