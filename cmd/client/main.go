// Command client is a terminal front end for the research assistant. It
// streams one chat turn over SSE and renders the events as they arrive.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	addr      = flag.String("addr", "http://localhost:8080", "server address")
	message   = flag.String("message", "", "research topic to ask about")
	sessionID = flag.String("session", "", "session identifier to continue")
	userID    = flag.String("user", "", "user identifier")
)

var (
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	toolStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	finalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type streamEvent struct {
	Type    string `json:"type"`
	Author  string `json:"author"`
	Content string `json:"content"`
	IsFinal bool   `json:"is_final"`
	Tool    string `json:"tool"`
	Error   string `json:"error"`
}

func main() {
	flag.Parse()
	if *message == "" {
		fmt.Fprintln(os.Stderr, "usage: client -message <topic> [-session <id>] [-user <id>]")
		os.Exit(2)
	}

	q := url.Values{}
	q.Set("message", *message)
	if *sessionID != "" {
		q.Set("session_id", *sessionID)
	}
	if *userID != "" {
		q.Set("user_id", *userID)
	}

	resp, err := http.Get(*addr + "/chat/stream?" + q.Encode())
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("request failed: %v", err)))
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("server returned %s", resp.Status)))
		os.Exit(1)
	}

	if id := resp.Header.Get("X-Session-Id"); id != "" {
		fmt.Println(authorStyle.Render("session: ") + id)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		printEvent(ev)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("stream error: %v", err)))
		os.Exit(1)
	}
}

func printEvent(ev streamEvent) {
	switch ev.Type {
	case "content":
		label := authorStyle.Render(fmt.Sprintf("[%s] ", ev.Author))
		if ev.IsFinal {
			fmt.Println(label + finalStyle.Render(ev.Content))
		} else {
			fmt.Println(label + ev.Content)
		}
	case "tool_call":
		fmt.Println(toolStyle.Render(fmt.Sprintf("[%s] calling tool %s", ev.Author, ev.Tool)))
	case "error":
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+ev.Error))
	}
}
