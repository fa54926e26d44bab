package match

import "github.com/robalobadob/crossduel/apps/go-server/internal/stats"

type welcomeMsg struct {
	Type        string         `json:"type"`
	PlayerID    string         `json:"playerId"`
	PlayerName  string         `json:"playerName"`
	QueueSize   int            `json:"queueSize"`
	OnlineCount int            `json:"onlineCount"`
	Stats       stats.Snapshot `json:"stats"`
}

type queueJoinedMsg struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

type queueLeftMsg struct {
	Type string `json:"type"`
}

type opponent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type matchFoundMsg struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId"`
	Opponent  opponent `json:"opponent"`
	Ticket    string   `json:"ticket,omitempty"`
}

type statsUpdateMsg struct {
	Type        string         `json:"type"`
	QueueSize   int            `json:"queueSize"`
	OnlineCount int            `json:"onlineCount"`
	Stats       stats.Snapshot `json:"stats"`
}
