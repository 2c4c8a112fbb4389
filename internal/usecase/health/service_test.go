package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockIndex struct {
	exists bool
	err    error
}

func (m *mockIndex) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.exists, m.err
}

type mockEmbedding struct {
	err error
}

func (m *mockEmbedding) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockIndex{exists: true}, "poshan-corpus", &mockEmbedding{})
	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("Status = %q, want ok", report.Status)
	}
	for _, name := range []string{"redis", "index", "embedding"} {
		if report.Checks[name] != CheckOK {
			t.Errorf("check %q = %q, want ok", name, report.Checks[name])
		}
	}
}

func TestCheck_StoreDownIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockIndex{exists: true}, "poshan-corpus", &mockEmbedding{})
	report := svc.Check(context.Background())

	if report.Status != Unhealthy {
		t.Errorf("Status = %q, want error", report.Status)
	}
	if report.Checks["redis"] != CheckError {
		t.Errorf("redis check = %q, want error", report.Checks["redis"])
	}
	// No point probing the index through a dead store.
	if _, ok := report.Checks["index"]; ok {
		t.Error("index check should be skipped when the store is down")
	}
}

func TestCheck_MissingIndexDegrades(t *testing.T) {
	svc := New(&mockPinger{}, &mockIndex{exists: false}, "poshan-corpus", &mockEmbedding{})
	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("Status = %q, want degraded", report.Status)
	}
	if report.Checks["index"] != CheckError {
		t.Errorf("index check = %q, want error", report.Checks["index"])
	}
}

func TestCheck_EmbeddingFailureDegrades(t *testing.T) {
	svc := New(&mockPinger{}, &mockIndex{exists: true}, "poshan-corpus",
		&mockEmbedding{err: errors.New("provider unreachable")})
	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("Status = %q, want degraded", report.Status)
	}
	if report.Checks["embedding"] != CheckError {
		t.Errorf("embedding check = %q, want error", report.Checks["embedding"])
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockPinger{}, &mockIndex{exists: true}, "poshan-corpus", nil)
	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("Status = %q, want ok", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when no checker is wired")
	}
}
