// Command client is a thin terminal front end for the chat relay. It
// speaks the newline protocol directly: stdin lines go to the server,
// server lines go to stdout, with a little color for replies and
// notices. All real logic lives server-side.
package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type config struct {
	ServerAddr string `envconfig:"SERVER_ADDR" default:"localhost:12345"`
	Colours    bool   `envconfig:"CLIENT_COLOURS" default:"true"`
}

func main() {
	_ = godotenv.Load()
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	conn, err := net.Dial("tcp", cfg.ServerAddr)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.ServerAddr, err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s\n", cfg.ServerAddr)
	fmt.Println("Log in with /login <user> <password> or register with /register <user> <password>.")

	go receive(conn, cfg.Colours)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line, ok := translate(scanner.Text())
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(conn, line); err != nil {
			log.Fatalf("Connection lost: %v", err)
		}
	}
}

// translate maps the /login and /register shorthands onto the wire
// protocol; anything else is sent as-is.
func translate(line string) (string, bool) {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 3 && fields[0] == "/login":
		return "LOGIN_REQUEST:" + fields[1] + ":" + fields[2], true
	case len(fields) == 3 && fields[0] == "/register":
		return "REGISTER_REQUEST:" + fields[1] + ":" + fields[2], true
	case strings.HasPrefix(line, "/"):
		fmt.Println("Unknown command. Use /login <user> <password> or /register <user> <password>.")
		return "", false
	default:
		return line, true
	}
}

func receive(conn net.Conn, colours bool) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		render(scanner.Text(), colours)
	}
	fmt.Println("Disconnected from server.")
	os.Exit(0)
}

func render(line string, colours bool) {
	if !colours {
		fmt.Println(line)
		return
	}

	switch {
	case strings.HasPrefix(line, "LOGIN_SUCCESS:") || strings.HasPrefix(line, "REGISTER_SUCCESS:"):
		color.Green.Println(line)
	case strings.HasPrefix(line, "LOGIN_FAILED:") || strings.HasPrefix(line, "REGISTER_FAILED:") || strings.HasPrefix(line, "ERROR:"):
		color.Red.Println(line)
	case strings.HasSuffix(line, "has joined the chat.") || strings.HasSuffix(line, "has left the chat."):
		color.Yellow.Println(line)
	default:
		fmt.Println(line)
	}
}
