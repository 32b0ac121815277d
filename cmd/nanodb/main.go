// Command nanodb is the interactive shell for a nanoDB database file.
//
// Usage:
//
//	nanodb <db-file>
//
// Each input line is a meta-command (leading '.') or a statement. The
// database is flushed to disk when the session ends with .exit; killing
// the process loses unflushed writes.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/SimonWaldherr/nanoDB/internal/engine"
	"github.com/SimonWaldherr/nanoDB/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Must supply a database filename.")
		os.Exit(1)
	}

	table, err := storage.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	sess := engine.NewSession(table, os.Stdout)
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 1024), 64*1024)

	for {
		fmt.Print("db > ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				fmt.Fprintln(os.Stderr, "Error reading input:", err)
			} else {
				fmt.Fprintln(os.Stderr, "Error reading input")
			}
			os.Exit(1)
		}
		quit, err := sess.Dispatch(sc.Text())
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		if quit {
			os.Exit(0)
		}
	}
}
