// Command client is a terminal websocket client. It prints every event it
// receives and turns stdin lines into frames for the current room.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables. Without a token the
// client logs in with the email and password first.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Token         string `env:"CHAT_TOKEN"`
	Email         string `env:"CHAT_EMAIL"`
	Password      string `env:"CHAT_PASSWORD"`
	DefaultRoomID int64  `env:"CHAT_ROOM_ID,default=1"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := config.Token
	if token == "" {
		var err error
		if token, err = login(ctx, config); err != nil {
			return exitConfig, err
		}
	}

	endpoint := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws"}
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		if resp != nil {
			return exitRuntime, fmt.Errorf("could not connect to %s: %s", endpoint.String(), resp.Status)
		}
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", endpoint.String(), err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	log.Info(fmt.Sprintf(">>> Connected to %s! Room %d (/help for commands, Ctrl+C to quit)", config.ServerAddress, config.DefaultRoomID))

	errChan := make(chan error, 1)
	go func() { errChan <- receive(conn, os.Stdout) }()
	go send(ctx, log, conn, os.Stdin, os.Stdout, config.DefaultRoomID)

	select {
	case <-ctx.Done():
		log.Info("Stopping client...")
		return exitOK, nil
	case err := <-errChan:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("connection lost: %w", err)
	}
}

// receive prints inbound frames until the connection fails.
func receive(conn *websocket.Conn, out io.Writer) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, render(data))
	}
}

// send turns stdin lines into frames. Local commands write their answer to out.
func send(ctx context.Context, log *slog.Logger, conn *websocket.Conn, in io.Reader, out io.Writer, roomID int64) {
	session := &session{roomID: roomID}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		frame, notice := session.parseLine(scanner.Text())
		if notice != "" {
			fmt.Fprintln(out, notice)
		}
		if frame == nil {
			continue
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Warn("Send failed", "error", err)
			return
		}
	}
}

func login(ctx context.Context, config Config) (string, error) {
	if config.Email == "" || config.Password == "" {
		return "", fmt.Errorf("CHAT_TOKEN or CHAT_EMAIL and CHAT_PASSWORD are required")
	}
	body, err := json.Marshal(map[string]string{"email": config.Email, "password": config.Password})
	if err != nil {
		return "", err
	}
	endpoint := url.URL{Scheme: "http", Host: config.ServerAddress, Path: "/api/auth/login"}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", resp.Status)
	}
	var session struct {
		Token string `json:"token"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}
	return session.Token, nil
}
