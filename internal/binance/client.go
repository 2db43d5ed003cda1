// Package binance предоставляет источник котировок для движка курсов:
// поток сделок через WebSocket и разовую загрузку цен через REST API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/akulagin/rentadash-system/internal/rates"
)

const (
	// DefaultStreamURL — базовый адрес публичных стримов Binance.
	DefaultStreamURL = "wss://stream.binance.com:9443/ws"
	// DefaultAPIURL — базовый адрес REST API Binance.
	DefaultAPIURL = "https://api.binance.com"

	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second

	// После исчерпания попыток клиент остаётся отключённым
	// до ручного переподключения.
	maxReconnectAttempts  = 10
	initialReconnectDelay = time.Second

	tickBufferSize = 256
)

// instruments — фиксированный набор отслеживаемых пар. Прямая котировка
// USDT/ARS опциональна: её отсутствие на бирже не считается ошибкой.
var instruments = []rates.Instrument{
	rates.InstrumentBTCUSDT,
	rates.InstrumentBTCARS,
	rates.InstrumentUSDTBRL,
	rates.InstrumentUSDTARS,
}

// Client подписывается на поток сделок Binance и отдаёт тики котировок
// движку курсов через канал.
type Client struct {
	streamURL  string
	apiURL     string
	logger     *zap.Logger
	httpClient *retryablehttp.Client

	ticks       chan rates.Tick
	reconnectCh chan struct{}
	statusFn    func(connected bool)

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
}

// NewClient создаёт клиент котировок Binance. Пустые адреса заменяются
// публичными значениями по умолчанию.
func NewClient(streamURL, apiURL string, logger *zap.Logger) *Client {
	if streamURL == "" {
		streamURL = DefaultStreamURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.HTTPClient.Timeout = 5 * time.Second
	httpClient.Logger = nil

	return &Client{
		streamURL:   strings.TrimRight(streamURL, "/"),
		apiURL:      strings.TrimRight(apiURL, "/"),
		logger:      logger,
		httpClient:  httpClient,
		ticks:       make(chan rates.Tick, tickBufferSize),
		reconnectCh: make(chan struct{}, 1),
	}
}

// Ticks возвращает канал тиков котировок.
func (c *Client) Ticks() <-chan rates.Tick {
	return c.ticks
}

// OnStatus регистрирует обработчик смены состояния соединения.
// Должен вызываться до Run.
func (c *Client) OnStatus(fn func(connected bool)) {
	c.statusFn = fn
}

func (c *Client) setStatus(connected bool) {
	if c.statusFn != nil {
		c.statusFn(connected)
	}
}

// streamEndpoint собирает адрес комбинированного стрима сделок
// для всех отслеживаемых пар.
func (c *Client) streamEndpoint() string {
	streams := make([]string, 0, len(instruments))
	for _, ins := range instruments {
		streams = append(streams, strings.ToLower(string(ins))+"@trade")
	}
	return c.streamURL + "/" + strings.Join(streams, "/")
}

// Run держит соединение со стримом сделок до отмены контекста.
// Разрывы соединения переживаются экспоненциальным backoff; после
// исчерпания попыток клиент ждёт ручного переподключения.
func (c *Client) Run(ctx context.Context) error {
	for {
		backoff := retry.WithMaxRetries(maxReconnectAttempts-1, retry.NewExponential(initialReconnectDelay))

		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := c.listen(ctx); err != nil {
				c.logger.Warn("binance stream disconnected", zap.Error(err))
				return retry.RetryableError(err)
			}
			return nil
		})

		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}

		c.logger.Error("binance reconnect attempts exhausted, waiting for manual reconnect",
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-c.reconnectCh:
		}
	}
}

// listen устанавливает одно соединение и читает его до разрыва.
// Возвращает nil только при штатной остановке через контекст.
func (c *Client) listen(ctx context.Context) error {
	c.mu.Lock()
	c.connecting = true
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.streamEndpoint(), nil)

	c.mu.Lock()
	c.connecting = false
	c.conn = conn
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("dial binance stream: %w", err)
	}

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		c.setStatus(false)
	}()

	c.logger.Info("binance stream connected")
	c.setStatus(true)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Закрываем соединение при отмене контекста, чтобы ReadMessage вернулся.
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read stream message: %w", err)
		}

		c.handleMessage(ctx, message)
	}
}

// tradeEvent — формат сообщения стрима @trade.
type tradeEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

// handleMessage разбирает сообщение стрима и передаёт тик движку.
// Некорректные сообщения логируются и отбрасываются.
func (c *Client) handleMessage(ctx context.Context, message []byte) {
	var event tradeEvent
	if err := json.Unmarshal(message, &event); err != nil {
		c.logger.Debug("dropping malformed stream message", zap.Error(err))
		return
	}

	if event.Symbol == "" || event.Price == "" {
		return
	}

	instrument, ok := lookupInstrument(event.Symbol)
	if !ok {
		c.logger.Debug("dropping tick for unexpected symbol", zap.String("symbol", event.Symbol))
		return
	}

	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		c.logger.Debug("dropping tick with malformed price",
			zap.String("symbol", event.Symbol), zap.String("price", event.Price))
		return
	}

	tickTime := time.Now()
	if event.TradeTime > 0 {
		tickTime = time.UnixMilli(event.TradeTime)
	}

	select {
	case c.ticks <- rates.Tick{Instrument: instrument, Price: price, Time: tickTime}:
	case <-ctx.Done():
	}
}

func lookupInstrument(symbol string) (rates.Instrument, bool) {
	upper := rates.Instrument(strings.ToUpper(symbol))
	for _, ins := range instruments {
		if ins == upper {
			return ins, true
		}
	}
	return "", false
}

// Reconnect принудительно переподключает стрим. Вызов идемпотентен:
// во время уже идущей попытки соединения он ничего не делает.
func (c *Client) Reconnect() {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		// Цикл Run сам переподключится после закрытия.
		conn.Close()
		return
	}

	select {
	case c.reconnectCh <- struct{}{}:
	default:
	}
}

// tickerResult — формат ответа REST-эндпоинта /api/v3/ticker/price.
type tickerResult struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Bootstrap разово загружает текущие цены через REST API, чтобы движок
// получил данные до прогрева стрима. Отсутствие отдельной пары не считается
// ошибкой: соответствующий курс просто появится позже.
func (c *Client) Bootstrap(ctx context.Context) {
	for _, ins := range instruments {
		price, err := c.fetchTickerPrice(ctx, string(ins))
		if err != nil {
			c.logger.Info("bootstrap price unavailable",
				zap.String("symbol", string(ins)), zap.Error(err))
			continue
		}

		select {
		case c.ticks <- rates.Tick{Instrument: ins, Price: price, Time: time.Now()}:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) fetchTickerPrice(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.apiURL, symbol)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result tickerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}

	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", result.Price, err)
	}

	return price, nil
}
