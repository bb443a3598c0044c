package main

import "github.com/MrSnakeDoc/appdir/internal/cli"

func main() {
	cli.Execute()
}
