package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPrintLabel = "labels.print"

type LabelPrintPayload struct {
	Kind        string `json:"kind"`
	WSN         string `json:"wsn"`
	WarehouseID int64  `json:"warehouseId"`
	Operator    string `json:"operator,omitempty"`
	Title       string `json:"title,omitempty"`
}

func NewLabelPrintTask(payload LabelPrintPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPrintLabel, data), nil
}

func ParseLabelPrintPayload(task *asynq.Task) (LabelPrintPayload, error) {
	var payload LabelPrintPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LabelPrintPayload{}, err
	}
	return payload, nil
}
