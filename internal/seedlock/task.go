package seedlock

import "encoding/hex"

// TaskKind distinguishes a seed-verification task from a ciphertext-decrypt
// task (spec §4.4: "distinct (Task::Seed | Task::Decrypt) items").
type TaskKind int

const (
	TaskSeed TaskKind = iota
	TaskDecrypt
)

// Task is a comparable (map-key-safe) unit of precomputable work extracted
// from a block's transactions.
type Task struct {
	Kind          TaskKind
	View          uint64
	CiphertextHex string // empty for TaskSeed
}

// DecryptTask builds a Task for a ciphertext targeting targetView.
func DecryptTask(targetView uint64, ciphertext []byte) Task {
	return Task{Kind: TaskDecrypt, View: targetView, CiphertextHex: hex.EncodeToString(ciphertext)}
}

// SeedTask builds a Task for verifying the seed of view.
func SeedTask(view uint64) Task {
	return Task{Kind: TaskSeed, View: view}
}

// TaskResult is the cached outcome of one Task.
type TaskResult struct {
	// Valid for TaskSeed: whether the threshold signature verified.
	SeedVerified bool

	// Valid for TaskDecrypt: the decoded move byte. Always populated,
	// defaulting to 0 when the seed never verified or decoding failed
	// (spec §4.4/§7: "fall back to move 0", never a nondeterministic
	// recomputation at apply time).
	Move byte
}

// Cache is the (Task -> TaskResult) map populated once per block and
// consulted, never recomputed, during apply (spec §9).
type Cache map[Task]TaskResult

// Move returns the cached result for a decrypt task, defaulting to move 0
// if the task was never resolved (seed missing, failed verification, or
// simply never referenced).
func (c Cache) Move(targetView uint64, ciphertext []byte) byte {
	if c == nil {
		return 0
	}
	r, ok := c[DecryptTask(targetView, ciphertext)]
	if !ok {
		return 0
	}
	return r.Move
}

func (c Cache) SeedVerified(view uint64) bool {
	if c == nil {
		return false
	}
	return c[SeedTask(view)].SeedVerified
}
