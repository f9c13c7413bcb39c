// Command lostfound は遺失物マッチングのAPIサーバーとワーカーを起動する。
//
// 使い方:
//
//	lostfound [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/lostfound/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
