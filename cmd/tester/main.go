// Command tester is a smoke client for a running relay: it joins a room,
// prints the membership snapshot and the room history, sends one probe
// message and leaves. Useful after deploys and config changes.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"chat-relay/domain"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		color.Redln("Smoke test failed:", err)
		os.Exit(1)
	}
	color.Greenln("Smoke test passed")
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}

	color.Cyanln("Joining room", cfg.Room, "as", cfg.Username)
	user, err := join(client, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = post(client, cfg.ServerURL+"/api/leave", map[string]string{"userId": user.ID}, nil)
	}()

	if err := post(client, cfg.ServerURL+"/api/message",
		map[string]string{"userId": user.ID, "message": cfg.Message}, nil); err != nil {
		return err
	}

	messages, err := roomMessages(client, cfg)
	if err != nil {
		return err
	}
	color.Cyanln(len(messages), "message(s) in room history")

	printRoomTable(user, messages)
	return nil
}

func join(client *http.Client, cfg Config) (domain.User, error) {
	var response struct {
		User domain.User `json:"user"`
	}
	err := post(client, cfg.ServerURL+"/api/join",
		map[string]string{"username": cfg.Username, "room": cfg.Room}, &response)
	if err != nil {
		return domain.User{}, err
	}
	return response.User, nil
}

func roomMessages(client *http.Client, cfg Config) ([]domain.Message, error) {
	resp, err := client.Get(cfg.ServerURL + "/api/messages?room=" + url.QueryEscape(cfg.Room))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var response struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}
	return response.Messages, nil
}

func post(client *http.Client, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("%s: %s (%s)", endpoint, resp.Status, failure.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printRoomTable(user domain.User, messages []domain.Message) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Sender", "Emoji", "At", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	rows := lo.Map(messages, func(m domain.Message, _ int) []string {
		content := m.Text
		if m.IsLocation() {
			content = m.URL
		}
		return []string{m.Username, m.Emoji, m.CreatedAt.Format("15:04:05"), content}
	})
	table.AppendBulk(rows)

	color.Cyanln("Room", user.Room, "as seen by", user.Username, user.Emoji)
	table.Render()
}
