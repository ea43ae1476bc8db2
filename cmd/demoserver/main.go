// Command demoserver serves fixture pages with known accessibility defects.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/a11yscan/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   a11yscan Demo Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Pages are served in numbered versions. Version 1")
	fmt.Println("of every page is broken on purpose; later versions")
	fmt.Println("fix some or all of the defects.")
	fmt.Println()
	for _, p := range demoserver.GetAllPages() {
		fmt.Printf("  %-6s %s (%s)\n", p.Path, p.Description, p.Platform)
	}
	fmt.Println()
	fmt.Println("Scan with a local browser, e.g.:")
	fmt.Printf("  go run . -backend local -target http://localhost:%d/shop\n", cfg.Port)
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
