package main

import (
	"newsmesh/cmd/handlers"
	"newsmesh/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
