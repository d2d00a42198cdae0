package sessions_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/homeschool-portal/sessions"
	"github.com/stretchr/testify/require"
)

func TestCodeLedger(t *testing.T) {
	t.Run("records last code per tab", func(t *testing.T) {
		ledger := sessions.NewCodeLedger(time.Hour)
		defer ledger.Close()

		require.Empty(t, ledger.Last("tab-1"))

		ledger.Record("tab-1", "abc123")
		ledger.Record("tab-2", "xyz789")
		require.Equal(t, "abc123", ledger.Last("tab-1"))
		require.Equal(t, "xyz789", ledger.Last("tab-2"))

		ledger.Record("tab-1", "def456")
		require.Equal(t, "def456", ledger.Last("tab-1"))
	})

	t.Run("ignores empty values", func(t *testing.T) {
		ledger := sessions.NewCodeLedger(time.Hour)
		defer ledger.Close()

		ledger.Record("", "abc123")
		ledger.Record("tab-1", "")
		require.Empty(t, ledger.Last(""))
		require.Empty(t, ledger.Last("tab-1"))
	})

	t.Run("forget", func(t *testing.T) {
		ledger := sessions.NewCodeLedger(time.Hour)
		defer ledger.Close()

		ledger.Record("tab-1", "abc123")
		ledger.Forget("tab-1")
		require.Empty(t, ledger.Last("tab-1"))
	})

	t.Run("entries expire", func(t *testing.T) {
		ledger := sessions.NewCodeLedger(10 * time.Millisecond)
		defer ledger.Close()

		ledger.Record("tab-1", "abc123")
		time.Sleep(20 * time.Millisecond)
		require.Empty(t, ledger.Last("tab-1"))
	})

	t.Run("close is idempotent", func(t *testing.T) {
		ledger := sessions.NewCodeLedger(time.Hour)
		ledger.Close()
		ledger.Close()
	})

	t.Run("concurrent use", func(t *testing.T) {
		ledger := sessions.NewCodeLedger(time.Hour)
		defer ledger.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ledger.Record("tab-1", "abc123")
				_ = ledger.Last("tab-1")
			}()
		}
		wg.Wait()
		require.Equal(t, "abc123", ledger.Last("tab-1"))
	})
}
