package main

import (
	"exusiai.dev/bgstats/cmd/app"
)

func main() {
	app.Run()
}
