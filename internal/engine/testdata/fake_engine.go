package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// A minimal UCI engine for subprocess tests. FAKE_ENGINE_MODE=crash exits
// right after answering "uci".
func main() {
	crash := os.Getenv("FAKE_ENGINE_MODE") == "crash"
	fmt.Println("fake engine by ucid tests")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		cmd := strings.TrimSpace(sc.Text())
		switch {
		case cmd == "uci":
			fmt.Println("id name fake")
			fmt.Println("option name SyzygyPath type string default <empty>")
			fmt.Println("uciok")
			if crash {
				os.Exit(3)
			}
		case cmd == "isready":
			fmt.Println("readyok")
		case strings.HasPrefix(cmd, "go"):
			fmt.Println("info depth 1 score cp 20 pv e2e4")
			fmt.Println("bestmove e2e4 ponder e7e5")
		case cmd == "quit":
			return
		}
	}
}
