package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID with an optional prefix
func GenerateUUID(prefix string) string {
	id := uuid.New()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(id.String(), "-", ""))
	}
	return id.String()
}

// NewRunID identifies one CLI invocation in the logs.
func NewRunID() string {
	return GenerateUUID("run")
}

// NewEvalID identifies one evaluation inside a run. It is derived from
// the run id and the evaluated operation, so reruns of the same snapshot
// with the same run id log the same ids.
func NewEvalID(runID, op string) string {
	ns, err := uuid.Parse(strings.TrimPrefix(runID, "run_"))
	if err != nil {
		ns = uuid.Nil
	}
	id := uuid.NewSHA1(ns, []byte(op))
	return "eval_" + strings.ReplaceAll(id.String(), "-", "")[:12]
}
