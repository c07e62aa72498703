package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

var ServerURL = "http://localhost:8080"
var CurrentUser string
var CurrentUUID string

type AuthResponse struct {
	Status string `json:"status"`
	UUID   string `json:"uuid"`
	Home   string `json:"home"`
}

func main() {
	if url := os.Getenv("STARHOLD_SERVER"); url != "" {
		ServerURL = url
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Starhold Command Console")
	fmt.Printf("Target Server: %s\n", ServerURL)

	for {
		if !loginLoop(reader) {
			return
		}

		fmt.Println("\n--- COMMAND LINK ESTABLISHED ---")
		fmt.Printf("Welcome, Commander %s.\n", CurrentUser)
		fmt.Println("Commands: state, survey, build, ships, defense, research, fleet, recall, claim, phalanx, messages, logout, quit")

		logout := false
		for !logout {
			fmt.Printf("[%s]> ", CurrentUser)
			text, _ := reader.ReadString('\n')
			parts := strings.Fields(strings.TrimSpace(text))
			if len(parts) == 0 {
				continue
			}

			switch parts[0] {
			case "state":
				get("/api/state")
			case "messages":
				get("/api/messages")
			case "survey":
				if len(parts) < 2 {
					fmt.Println("usage: survey g:s:p")
					continue
				}
				post("/api/survey", map[string]string{"coord": parts[1]})
			case "build":
				if len(parts) < 3 {
					fmt.Println("usage: build <colony> <structure>")
					continue
				}
				post("/api/build", map[string]string{"colony": parts[1], "structure": parts[2]})
			case "research":
				if len(parts) < 3 {
					fmt.Println("usage: research <colony> <technology>")
					continue
				}
				post("/api/research", map[string]string{"colony": parts[1], "technology": parts[2]})
			case "ships", "defense":
				if len(parts) < 4 {
					fmt.Printf("usage: %s <colony> <unit> <amount>\n", parts[0])
					continue
				}
				amount, _ := strconv.Atoi(parts[3])
				path := "/api/shipyard"
				if parts[0] == "defense" {
					path = "/api/defense"
				}
				post(path, map[string]interface{}{"colony": parts[1], "unit": parts[2], "amount": amount})
			case "fleet":
				if len(parts) < 4 {
					fmt.Println("usage: fleet <origin> <kind> <target> [ship:count ...]")
					continue
				}
				ships := make(map[string]int)
				for _, spec := range parts[4:] {
					kv := strings.SplitN(spec, ":", 2)
					if len(kv) != 2 {
						continue
					}
					n, _ := strconv.Atoi(kv[1])
					ships[kv[0]] = n
				}
				post("/api/fleet/send", map[string]interface{}{
					"origin": parts[1], "kind": parts[2], "target": parts[3], "ships": ships,
				})
			case "recall":
				if len(parts) < 2 {
					fmt.Println("usage: recall <mission-id>")
					continue
				}
				post("/api/fleet/recall", map[string]string{"mission_id": parts[1]})
			case "claim":
				post("/api/bonus/claim", map[string]string{})
			case "phalanx":
				if len(parts) < 2 {
					fmt.Println("usage: phalanx <colony>")
					continue
				}
				post("/api/phalanx", map[string]string{"colony": parts[1]})
			case "logout":
				CurrentUser, CurrentUUID = "", ""
				logout = true
			case "quit", "exit":
				return
			case "help":
				fmt.Println("state survey build research ships defense fleet recall claim phalanx messages logout quit")
			default:
				fmt.Println("Unknown command. Try 'help'.")
			}
		}
	}
}

func loginLoop(reader *bufio.Reader) bool {
	for {
		fmt.Println("\n1) login  2) register  3) quit")
		fmt.Print("> ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		if choice == "3" {
			return false
		}
		if choice != "1" && choice != "2" {
			continue
		}

		fmt.Print("Username: ")
		user, _ := reader.ReadString('\n')
		fmt.Print("Password: ")
		pass, _ := reader.ReadString('\n')
		user = strings.TrimSpace(user)
		pass = strings.TrimSpace(pass)

		path := "/api/login"
		if choice == "2" {
			path = "/api/register"
		}
		payload, _ := json.Marshal(map[string]string{"username": user, "password": pass})
		resp, err := http.Post(ServerURL+path, "application/json", bytes.NewBuffer(payload))
		if err != nil {
			fmt.Printf("Server unreachable: %v\n", err)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != 200 {
			fmt.Printf("Failed: %s\n", strings.TrimSpace(string(body)))
			continue
		}
		var auth AuthResponse
		json.Unmarshal(body, &auth)
		CurrentUser = user
		CurrentUUID = auth.UUID
		fmt.Printf("Authenticated. Home system: %s\n", auth.Home)
		return true
	}
}

func get(path string) {
	req, _ := http.NewRequest("GET", ServerURL+path, nil)
	req.Header.Set("X-User-ID", CurrentUUID)
	do(req)
}

func post(path string, payload interface{}) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", ServerURL+path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", CurrentUUID)
	do(req)
}

func do(req *http.Request) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		fmt.Printf("[%d] %s\n", resp.StatusCode, strings.TrimSpace(string(raw)))
		return
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(raw))
	}
}
