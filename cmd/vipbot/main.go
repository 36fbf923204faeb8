package main

import (
	"log"

	corecmd "github.com/m3rciful/vipbot/core/cmd"
	"github.com/m3rciful/vipbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatalf("vipbot: %v", err)
	}
}
