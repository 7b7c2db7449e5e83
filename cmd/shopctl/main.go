package main

import "github.com/angelmondragon/shopfront-backend/internal/cli"

func main() {
	cli.Execute()
}
