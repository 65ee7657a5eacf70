package data

import "github.com/deeplx-bot/feishu-translate-bot/internal/conf"

func testConfig() *conf.Config {
	return &conf.Config{DeleteTime: 60}
}
