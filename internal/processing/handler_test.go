package processing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sheet_entry_bot/internal/app"
	"sheet_entry_bot/internal/config"
	"sheet_entry_bot/internal/retry"
	"sheet_entry_bot/internal/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cellWrite struct {
	Label string
	Row   int
	Value string
}

// fakeSheet is an in-memory SheetService. Writes land in columns so a later
// scan observes them, which is what the serialization test depends on.
type fakeSheet struct {
	mu        sync.Mutex
	headers   []string
	columns   map[string][]string
	headerErr error
	scanErr   error
	writeErr  error

	headerCalls int
	scanCalls   int
	writes      []cellWrite
}

func (f *fakeSheet) GetRow(ctx context.Context, spreadsheetID, sheetName string, rowIndex int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headerCalls++
	if f.headerErr != nil {
		return nil, f.headerErr
	}
	return f.headers, nil
}

func (f *fakeSheet) GetColumnRange(ctx context.Context, spreadsheetID, sheetName, columnLabel string, startRow int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return append([]string(nil), f.columns[columnLabel]...), nil
}

func (f *fakeSheet) SetCell(ctx context.Context, spreadsheetID, sheetName, columnLabel string, rowNumber int, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.columns == nil {
		f.columns = make(map[string][]string)
	}
	column := f.columns[columnLabel]
	for len(column) < rowNumber-1 {
		column = append(column, "")
	}
	column[rowNumber-2] = value
	f.columns[columnLabel] = column
	f.writes = append(f.writes, cellWrite{Label: columnLabel, Row: rowNumber, Value: value})
	return nil
}

type sentReply struct {
	ChatID  int64
	Text    string
	ReplyTo int64
}

type fakeReplier struct {
	mu      sync.Mutex
	err     error
	replies []sentReply
}

func (f *fakeReplier) SendReply(ctx context.Context, chatID int64, text string, replyToMessageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replies = append(f.replies, sentReply{ChatID: chatID, Text: text, ReplyTo: replyToMessageID})
	return nil
}

func testConfig() app.Config {
	return app.Config{
		BotToken:        "token",
		WebhookSecret:   "secret",
		ListenAddr:      ":0",
		SpreadsheetID:   "sheet-id",
		SheetName:       "Scores",
		CredentialsFile: "credentials.json",
	}
}

func testResilience() config.ResilienceConfig {
	op := retry.Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Timeout: time.Second}
	return config.ResilienceConfig{HeaderFetch: op, ColumnScan: op, CellWrite: op, ReplySend: op}
}

func groupUpdate(text string) *telegram.Update {
	return &telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 77,
			Chat:      telegram.Chat{ID: 1234, Type: "group"},
			Text:      text,
		},
	}
}

func TestHandleUpdateEndToEnd(t *testing.T) {
	sheet := &fakeSheet{
		headers: []string{"ALICE", "BOB"},
		columns: map[string][]string{"A": {"5"}},
	}
	replier := &fakeReplier{}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	handler.HandleUpdate(context.Background(), groupUpdate("alice/42"))

	require.Len(t, sheet.writes, 1)
	assert.Equal(t, cellWrite{Label: "A", Row: 3, Value: "42"}, sheet.writes[0])

	require.Len(t, replier.replies, 1)
	reply := replier.replies[0]
	assert.Equal(t, int64(1234), reply.ChatID)
	assert.Equal(t, int64(77), reply.ReplyTo)
	assert.Contains(t, reply.Text, "ALICE")
	assert.Contains(t, reply.Text, "42")
	assert.Contains(t, reply.Text, "3")
}

func TestHandleUpdateUnknownColumn(t *testing.T) {
	sheet := &fakeSheet{headers: []string{"FOO", "BAR"}}
	replier := &fakeReplier{}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	handler.HandleUpdate(context.Background(), groupUpdate("missing/9"))

	assert.Empty(t, sheet.writes)
	assert.Zero(t, sheet.scanCalls)
	require.Len(t, replier.replies, 1)
	assert.Contains(t, replier.replies[0].Text, "MISSING")
}

func TestHandleUpdateIgnoresNonMatchingText(t *testing.T) {
	sheet := &fakeSheet{headers: []string{"FOO"}}
	replier := &fakeReplier{}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	for _, text := range []string{"hello there", "foo/", "/9", "foo/9b"} {
		handler.HandleUpdate(context.Background(), groupUpdate(text))
	}

	assert.Zero(t, sheet.headerCalls)
	assert.Empty(t, sheet.writes)
	assert.Empty(t, replier.replies)
}

func TestHandleUpdateIgnoresIneligibleChats(t *testing.T) {
	sheet := &fakeSheet{headers: []string{"FOO"}}
	replier := &fakeReplier{}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	for _, chatType := range []string{"private", "channel"} {
		update := groupUpdate("foo/1")
		update.Message.Chat.Type = chatType
		handler.HandleUpdate(context.Background(), update)
	}
	handler.HandleUpdate(context.Background(), &telegram.Update{UpdateID: 2})

	assert.Zero(t, sheet.headerCalls)
	assert.Empty(t, sheet.writes)
	assert.Empty(t, replier.replies)
}

func TestHandleUpdateUsesCaption(t *testing.T) {
	sheet := &fakeSheet{headers: []string{"ALICE"}}
	replier := &fakeReplier{}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	update := groupUpdate("")
	update.Message.Caption = "alice/8"
	handler.HandleUpdate(context.Background(), update)

	require.Len(t, sheet.writes, 1)
	assert.Equal(t, cellWrite{Label: "A", Row: 2, Value: "8"}, sheet.writes[0])
}

func TestHandleUpdateStorageFailures(t *testing.T) {
	tests := []struct {
		desc  string
		sheet *fakeSheet
	}{
		{"header fetch fails", &fakeSheet{headerErr: errors.New("boom")}},
		{"column scan fails", &fakeSheet{headers: []string{"ALICE"}, scanErr: errors.New("boom")}},
		{"cell write fails", &fakeSheet{headers: []string{"ALICE"}, writeErr: errors.New("boom")}},
	}

	for _, tt := range tests {
		replier := &fakeReplier{}
		handler := NewHandler(testConfig(), tt.sheet, replier, testResilience())

		handler.HandleUpdate(context.Background(), groupUpdate("alice/1"))

		assert.Empty(t, tt.sheet.writes, tt.desc)
		require.Len(t, replier.replies, 1, tt.desc)
		assert.Contains(t, replier.replies[0].Text, "Failed to record", tt.desc)
	}
}

func TestHandleUpdateSwallowsReplyFailure(t *testing.T) {
	sheet := &fakeSheet{headers: []string{"ALICE"}}
	replier := &fakeReplier{err: errors.New("telegram down")}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	handler.HandleUpdate(context.Background(), groupUpdate("alice/3"))

	// The write still happened; a failed reply never undoes it.
	require.Len(t, sheet.writes, 1)
	assert.Equal(t, cellWrite{Label: "A", Row: 2, Value: "3"}, sheet.writes[0])
}

func TestConcurrentSameColumnWritesSerialize(t *testing.T) {
	sheet := &fakeSheet{headers: []string{"ALICE"}}
	replier := &fakeReplier{}
	handler := NewHandler(testConfig(), sheet, replier, testResilience())

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.HandleUpdate(context.Background(), groupUpdate("alice/1"))
		}()
	}
	wg.Wait()

	require.Len(t, sheet.writes, writers)
	rows := make(map[int]bool)
	for _, w := range sheet.writes {
		assert.False(t, rows[w.Row], "row %d written twice", w.Row)
		rows[w.Row] = true
	}
	for row := 2; row < 2+writers; row++ {
		assert.True(t, rows[row], "row %d never written", row)
	}
}
