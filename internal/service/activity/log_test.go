package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 10, 19, 14, 30, 5, 0, time.Local)
	return func() time.Time { return t0 }
}

func TestLog_AppendAndText(t *testing.T) {
	l := NewLog()
	l.SetClock(fixedClock())

	e1 := l.Append("Serial connection established.")
	e2 := l.Appendf("Command sent: %s", "device_info")

	assert.Equal(t, uint64(1), e1.Seq)
	assert.Equal(t, uint64(2), e2.Seq)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t,
		"[14:30:05] Serial connection established.\n[14:30:05] Command sent: device_info\n",
		l.Text())
}

func TestLog_Since(t *testing.T) {
	l := NewLog()
	for i := 0; i < 5; i++ {
		l.Appendf("line %d", i)
	}

	got := l.Since(3)
	require.Len(t, got, 2)
	assert.Equal(t, "line 3", got[0].Message)
	assert.Equal(t, "line 4", got[1].Message)

	assert.Empty(t, l.Since(5))
	assert.Empty(t, l.Since(100))
	assert.Len(t, l.Entries(), 5)
}

func TestLog_EntriesIsCopy(t *testing.T) {
	l := NewLog()
	l.Append("a")

	entries := l.Entries()
	entries[0].Message = "changed"

	assert.Equal(t, "a", l.Entries()[0].Message)
}

func TestLog_Subscribe(t *testing.T) {
	l := NewLog()
	sub := l.Subscribe()

	// Несколько записей подряд не блокируют журнал
	l.Append("one")
	l.Append("two")

	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}

	l.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok, "channel closed after unsubscribe")

	l.Append("three")
	assert.Equal(t, 3, l.Len())
}
