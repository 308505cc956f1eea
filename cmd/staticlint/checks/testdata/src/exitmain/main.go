package main

import (
	"fmt"
	"os"
)

func helper() {
	os.Exit(2)
}

func main() {
	defer fmt.Println("cleanup")
	if len(os.Args) > 3 {
		os.Exit(1) // want "os.Exit called directly in main"
	}
	func() {
		os.Exit(3)
	}()
	helper()
}
