// Command chatcli chats with a character from the terminal over /ws/chat.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const userSender = "User"

type message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type chatRequest struct {
	CharacterID string    `json:"characterId"`
	Messages    []message `json:"messages"`
}

type reply struct {
	AIResponse string `json:"aiResponse"`
	Error      string `json:"error"`
}

type character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Personality string `json:"personality"`
}

func main() {
	server := flag.String("server", "http://localhost:8081", "Backend base URL")
	characterID := flag.String("character", "", "Character id to chat with")
	list := flag.Bool("list", false, "List characters and exit")
	flag.Parse()

	if *list {
		if err := listCharacters(*server); err != nil {
			fmt.Fprintf(os.Stderr, "Error listing characters: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *characterID == "" {
		fmt.Println("Usage:")
		fmt.Println("  -list                 List characters")
		fmt.Println("  -character <id>       Chat with a character")
		fmt.Println("  -server <url>         Backend base URL (default http://localhost:8081)")
		os.Exit(0)
	}

	if err := chat(*server, *characterID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listCharacters(server string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimRight(server, "/") + "/api/v1/characters")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	var characters []character
	if err := json.NewDecoder(resp.Body).Decode(&characters); err != nil {
		return fmt.Errorf("error decoding characters: %w", err)
	}
	for _, c := range characters {
		fmt.Printf("%s  %s  %s\n", c.ID, c.Name, c.Personality)
	}
	return nil
}

func wsURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/chat"
	return u.String(), nil
}

func chat(server, characterID string) error {
	target, err := wsURL(server)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("error connecting to %s: %w", target, err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		os.Exit(0)
	}()

	fmt.Println("Connected. Type a message and press enter; Ctrl+C quits.")

	var history []message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		turn := append(history, message{Sender: userSender, Text: text})
		if err := conn.WriteJSON(chatRequest{CharacterID: characterID, Messages: turn}); err != nil {
			return fmt.Errorf("error sending message: %w", err)
		}

		var r reply
		if err := conn.ReadJSON(&r); err != nil {
			return fmt.Errorf("error reading reply: %w", err)
		}
		if r.Error != "" {
			fmt.Printf("! %s\n", r.Error)
			continue
		}

		fmt.Printf("< %s\n", r.AIResponse)
		history = append(turn, message{Sender: "AI", Text: r.AIResponse})
	}
}
