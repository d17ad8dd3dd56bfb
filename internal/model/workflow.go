package model

import (
	"encoding/json"
	"io"
)

const (
	// WorkflowOutputFile is written by the workflow engine client
	WorkflowOutputFile = "wf-output.json"

	ScriptFile         = "prescription.sh"
	WorkflowClientFile = "WorkflowClient.jar"
)

type workflowOutput struct {
	Breaker *struct {
		Status string `json:"status"`
	} `json:"breaker"`
}

// LoadBreakerStatus reads breaker.status of a workflow engine output
func LoadBreakerStatus(r io.Reader) (string, error) {
	var out workflowOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return "", err
	}
	if out.Breaker == nil {
		return "", ErrNoBreaker
	}
	return out.Breaker.Status, nil
}
