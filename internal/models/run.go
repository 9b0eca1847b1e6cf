package models

import "time"

// RunMeta is the content of a run packet's meta.json. Field order matches the
// sorted-key encoding written to disk.
type RunMeta struct {
	ParamsHash string `json:"params_hash"`
	PromptHash string `json:"prompt_hash"`
	Template   string `json:"template"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
}

// RunRecord is one row of the run history ledger.
type RunRecord struct {
	ID         string
	Template   string
	Preset     string
	PacketDir  string
	PromptHash string
	ParamsHash string
	CreatedAt  time.Time
}
