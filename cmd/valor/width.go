package main

import (
	"os"
	"strconv"
)

// envWidth reads $COLUMNS, which shells export when stdout is not a tty.
func envWidth() int {
	n, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
