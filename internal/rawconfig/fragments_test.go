package rawconfig

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestCpuConfDefaultsAndDoubleKey(t *testing.T) {
	c := CpuConf{Jm: 0, Tm: 2, JmFactor: -1, TmFactor: 1.5}
	entries := Elide(c.RawMapping())
	// Both jm and tm append to the same key; last value (tm) wins once
	// composed into a Configuration. Here we just assert the raw mapping
	// still carries both entries.
	count := 0
	for _, e := range entries {
		if e.Key == "kubernetes.taskmanager.cpu" {
			count++
		}
	}
	assert.Equal(t, count, 2)

	// Jm (0) and JmFactor (-1) fall back to their 1.0 default.
	assert.Equal(t, entries[0].Value, 1.0)
	assert.Equal(t, entries[1].Value, 1.0)
}

func TestMemConfDefaults(t *testing.T) {
	m := MemConf{JmMB: 0, TmMB: -5}
	entries := Elide(m.RawMapping())
	byKey := toMap(entries)
	assert.Equal(t, byKey["jobmanager.memory.process.size"], "1920m")
	assert.Equal(t, byKey["taskmanager.memory.process.size"], "1920m")
}

func TestParConfLowerBound(t *testing.T) {
	p := ParConf{NumOfSlot: 0, ParDefault: -3}
	byKey := toMap(Elide(p.RawMapping()))
	assert.Equal(t, byKey["taskmanager.numberOfTaskSlots"], "1")
	assert.Equal(t, byKey["parallelism.default"], "1")
}

func TestStateBackendElision(t *testing.T) {
	empty := ""
	s := StateBackendConf{
		BackendType:           BackendHashmap,
		CheckpointStorage:     CheckpointJobmanager,
		CheckpointDir:         nil,
		SavepointDir:          &empty,
		Incremental:           false,
		LocalRecovery:         false,
		CheckpointNumRetained: 0,
	}
	entries := Elide(s.RawMapping())
	byKey := toMap(entries)

	assert.Equal(t, byKey["state.backend"], "hashmap")
	assert.Equal(t, byKey["state.checkpoint-storage"], "jobmanager")
	assert.Equal(t, byKey["state.backend.incremental"], "false")
	assert.Equal(t, byKey["state.backend.local-recovery"], "false")
	assert.Equal(t, byKey["state.checkpoints.num-retained"], "1")

	_, hasCheckpointDir := byKey["state.checkpoints.dir"]
	_, hasSavepointDir := byKey["state.savepoints.dir"]
	assert.Assert(t, !hasCheckpointDir)
	assert.Assert(t, !hasSavepointDir)
}

func TestRestartStgFixedDelay(t *testing.T) {
	r := RestartStgConf{Kind: RestartFixedDelay, Attempts: 0, DelaySec: 0}
	byKey := toMap(Elide(r.RawMapping()))
	assert.Equal(t, byKey["restart-strategy"], "fixed-delay")
	assert.Equal(t, byKey["restart-strategy.fixed-delay.attempts"], "1")
	assert.Equal(t, byKey["restart-strategy.fixed-delay.delay"], "1s")
}

func toMap(entries []Entry) map[string]string {
	out := map[string]string{}
	for _, e := range entries {
		out[e.Key] = EncodeValue(e.Value)
	}
	return out
}
