package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/data/session"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the controller touches.
type fakeContext struct {
	tele.Context

	chat     *tele.Chat
	message  *tele.Message
	callback *tele.Callback
	store    map[string]any

	sent   []any
	edited []any
}

func newFakeContext(chatID int64, payload string) *fakeContext {
	return &fakeContext{
		chat:    &tele.Chat{ID: chatID},
		message: &tele.Message{Payload: payload},
		store:   map[string]any{},
	}
}

func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Message() *tele.Message   { return f.message }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	return nil
}

func (f *fakeContext) Data() string {
	if f.callback != nil {
		return f.callback.Data
	}
	return f.message.Payload
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) Edit(what any, _ ...any) error {
	f.edited = append(f.edited, what)
	return nil
}

func (f *fakeContext) lastText(t *testing.T) string {
	t.Helper()
	all := append(append([]any{}, f.sent...), f.edited...)
	require.NotEmpty(t, all)
	text, ok := all[len(all)-1].(string)
	require.True(t, ok, "last message is not text")
	return text
}

type fakeGenerator struct {
	size  int
	rows  int
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, table model.Table) ([]byte, string, error) {
	g.calls++
	g.rows = table.Len()
	return bytes.Repeat([]byte{'x'}, g.size), ".xlsx", nil
}

type fakeStorage struct {
	uploaded []string
	err      error
}

func (s *fakeStorage) UploadFile(_ context.Context, r io.Reader, filename string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	_, _ = io.Copy(io.Discard, r)
	s.uploaded = append(s.uploaded, filename)
	return "https://drive.example/" + filename, nil
}

func testBaseline() model.Table {
	fundamentals := []model.Record{
		{model.SymbolColumn: model.Text("AAPL"), model.ExchangeColumn: model.Text("NASDAQ"), model.MarketCapColumn: model.Number(2800)},
		{model.SymbolColumn: model.Text("IBM"), model.ExchangeColumn: model.Text("NYSE"), model.MarketCapColumn: model.Number(120)},
		{model.SymbolColumn: model.Text("KO"), model.ExchangeColumn: model.Text("NYSE"), model.MarketCapColumn: model.Number(260)},
	}
	quotes := []model.Record{
		{model.SymbolColumn: model.Text("AAPL"), model.LastPriceColumn: model.Number(170)},
		{model.SymbolColumn: model.Text("IBM"), model.LastPriceColumn: model.Number(140)},
		{model.SymbolColumn: model.Text("KO"), model.LastPriceColumn: model.Number(60)},
	}
	table, _ := model.JoinBySymbol(fundamentals, quotes, model.QuoteColumns)
	return table
}

func newTestController(gen *fakeGenerator, storage CloudStorage) (*Controller, *session.MemorySession) {
	cfg := &config.Config{StocksPerPage: 2}
	cfg.Telegram.FileLimitInBytes = 100

	sessions := session.NewMemorySession(cfg)
	sessions.SetBaseline(testBaseline())

	return NewController(cfg, sessions, gen, storage), sessions
}

func TestController_FilterThenResults(t *testing.T) {
	ctrl, _ := newTestController(&fakeGenerator{}, nil)

	c := newFakeContext(1, "Exchange=nyse; Market Cap=200..")
	require.NoError(t, ctrl.Filter(c))

	text := c.lastText(t)
	assert.Contains(t, text, "1 stocks")
	assert.Contains(t, text, "1. KO")
	assert.NotContains(t, text, "IBM")
}

func TestController_BadQueryKeepsResults(t *testing.T) {
	ctrl, sessions := newTestController(&fakeGenerator{}, nil)

	require.NoError(t, ctrl.Filter(newFakeContext(1, "exchange=nyse")))

	c := newFakeContext(1, "Sector=tech")
	require.NoError(t, ctrl.Filter(c))
	assert.Contains(t, c.lastText(t), "attribute not found")

	c = newFakeContext(1, "exchange=1..2")
	require.NoError(t, ctrl.Filter(c))
	assert.Contains(t, c.lastText(t), "filter does not match column type")

	require.NoError(t, sessions.WithSession(context.Background(), 1, func(cs *session.ChatSession) error {
		assert.Equal(t, 2, cs.Engine.Results().Len())
		return nil
	}))
}

func TestController_SortAndPaging(t *testing.T) {
	ctrl, _ := newTestController(&fakeGenerator{}, nil)

	c := newFakeContext(1, "Market Cap desc")
	require.NoError(t, ctrl.Sort(c))
	text := c.lastText(t)
	assert.Contains(t, text, "page 1/2")
	assert.True(t, strings.Index(text, "AAPL") < strings.Index(text, "KO"))

	c = newFakeContext(1, "")
	c.callback = &tele.Callback{Data: "1"}
	require.NoError(t, ctrl.Page(c))
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.lastText(t), "3. IBM")

	c = newFakeContext(1, "")
	require.NoError(t, ctrl.Results(c))
	assert.Contains(t, c.lastText(t), "page 2/2")
}

func TestController_Reset(t *testing.T) {
	ctrl, _ := newTestController(&fakeGenerator{}, nil)

	require.NoError(t, ctrl.Filter(newFakeContext(1, "exchange=nasdaq")))

	c := newFakeContext(1, "")
	require.NoError(t, ctrl.Reset(c))
	assert.Contains(t, c.lastText(t), "3 stocks")
}

func TestController_ExportAsDocument(t *testing.T) {
	gen := &fakeGenerator{size: 10}
	ctrl, _ := newTestController(gen, nil)

	c := newFakeContext(1, "")
	require.NoError(t, ctrl.Export(c))

	require.Len(t, c.sent, 1)
	doc, ok := c.sent[0].(*tele.Document)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(doc.FileName, ".xlsx"))
	assert.Equal(t, 3, gen.rows)
}

func TestController_ExportTooLarge(t *testing.T) {
	storage := &fakeStorage{}
	ctrl, _ := newTestController(&fakeGenerator{size: 1000}, storage)

	c := newFakeContext(1, "")
	require.NoError(t, ctrl.Export(c))
	assert.Contains(t, c.lastText(t), "https://drive.example/screener_1_")
	assert.Len(t, storage.uploaded, 1)

	ctrl, _ = newTestController(&fakeGenerator{size: 1000}, nil)
	c = newFakeContext(1, "")
	require.NoError(t, ctrl.Export(c))
	assert.Contains(t, c.lastText(t), "too large")

	ctrl, _ = newTestController(&fakeGenerator{size: 1000}, &fakeStorage{err: errors.New("quota")})
	c = newFakeContext(1, "")
	require.NoError(t, ctrl.Export(c))
	assert.Equal(t, internalErrMsg, c.lastText(t))
}

func TestController_NotReady(t *testing.T) {
	cfg := &config.Config{StocksPerPage: 2}
	ctrl := NewController(cfg, session.NewMemorySession(cfg), &fakeGenerator{}, nil)

	c := newFakeContext(1, "")
	require.NoError(t, ctrl.Filters(c))
	assert.Equal(t, notReadyMsg, c.lastText(t))
}
