// Command demoserver starts a local target server for trying the fetchers:
// charset pages, redirect chains, header/cookie echoes, status and delay
// endpoints.
// Usage: go run ./cmd/demoserver [port]
// Default port: 8090
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/hshahin/webprowl/internal/demoserver"
	"github.com/hshahin/webprowl/logging"
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

	fmt.Printf("Demo target server on http://localhost:%d\n", cfg.Port)
	fmt.Println("Routes: / /charset/{utf8,latin1,none} /redirect/{n} /echo/{headers,cookies} /status/{code} /delay/{ms}")

	server := demoserver.New(cfg, logging.New("demoserver"))
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
